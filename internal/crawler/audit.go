package crawler

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagegraph/pagegraph/internal/model"
)

// Scoring tables. Bands apply the single highest matching penalty, not
// cumulative penalties; keeping them as data keeps the scoring contract
// independently verifiable.

type penaltyBand struct {
	Above   float64
	Penalty int
}

var responseTimeBands = []penaltyBand{
	{Above: 3, Penalty: 40},
	{Above: 2, Penalty: 30},
	{Above: 1, Penalty: 20},
	{Above: 0.5, Penalty: 10},
}

var pageSizeBandsMB = []penaltyBand{
	{Above: 5, Penalty: 30},
	{Above: 3, Penalty: 20},
	{Above: 1, Penalty: 10},
}

var scoreWeights = map[model.FindingCategory]float64{
	model.CategoryPerformance:   0.30,
	model.CategoryAccessibility: 0.25,
	model.CategoryBestPractices: 0.25,
	model.CategorySEO:           0.20,
}

var securityHeaders = []string{
	"X-Content-Type-Options",
	"X-Frame-Options",
	"Strict-Transport-Security",
}

const (
	titleLengthMin       = 30
	titleLengthMax       = 60
	descriptionLengthMin = 120
	descriptionLengthMax = 160
)

// Audit computes the four heuristic sub-scores, the weighted overall
// score, raw metrics, and findings. A panic anywhere in scoring is
// recovered into all-zero scores with a single diagnostic finding;
// scoring never aborts the analysis.
func Audit(page *Page, fetch *FetchResult, pageURL *url.URL) (score *model.AuditScore) {
	defer func() {
		if r := recover(); r != nil {
			score = &model.AuditScore{
				Findings: []model.Finding{{
					Category:    model.CategoryBestPractices,
					Title:       "Audit Failure",
					Description: fmt.Sprintf("Scoring aborted: %v", r),
					Severity:    model.SeverityError,
				}},
			}
		}
	}()

	seconds := fetch.Elapsed.Seconds()
	perf := performanceScore(seconds, len(fetch.Body))
	access := accessibilityScore(page)
	best := bestPracticesScore(page, fetch, pageURL)
	seo := seoScore(page)

	return &model.AuditScore{
		Overall:       overallScore(perf, access, best, seo),
		Performance:   perf,
		Accessibility: access,
		BestPractices: best,
		SEO:           seo,
		Metrics: model.AuditMetrics{
			ResponseTimeMS: int(math.Round(seconds * 1000)),
			PageSizeKB:     math.Round(float64(len(fetch.Body))/1024*100) / 100,
			DOMElements:    page.DOMElementCount(),
		},
		Findings: collectFindings(page, seconds, pageURL),
	}
}

// overallScore is the fixed weighted combination of the four sub-scores,
// rounded to the nearest integer.
func overallScore(perf, access, best, seo int) int {
	weighted := float64(perf)*scoreWeights[model.CategoryPerformance] +
		float64(access)*scoreWeights[model.CategoryAccessibility] +
		float64(best)*scoreWeights[model.CategoryBestPractices] +
		float64(seo)*scoreWeights[model.CategorySEO]
	return int(math.Round(weighted))
}

func bandPenalty(bands []penaltyBand, value float64) int {
	for _, b := range bands {
		if value > b.Above {
			return b.Penalty
		}
	}
	return 0
}

func performanceScore(seconds float64, pageSize int) int {
	score := 100
	score -= bandPenalty(responseTimeBands, seconds)
	score -= bandPenalty(pageSizeBandsMB, float64(pageSize)/(1<<20))
	return clampScore(score)
}

func accessibilityScore(page *Page) int {
	score := 100

	images := page.doc.Find("img")
	if total := images.Length(); total > 0 {
		ratio := 1 - float64(countMissingAlt(images))/float64(total)
		score = int(float64(score) * (0.5 + 0.5*ratio))
	}

	switch h1 := page.doc.Find("h1").Length(); {
	case h1 == 0:
		score -= 15
	case h1 > 1:
		score -= 10
	}

	textInputs := page.doc.Find(`input[type="text"], input[type="email"], input[type="password"], input[type="tel"]`)
	textInputs.Each(func(_ int, input *goquery.Selection) {
		id := input.AttrOr("id", "")
		if id == "" {
			return
		}
		if page.doc.Find(`label[for="`+id+`"]`).Length() == 0 {
			score -= 5
		}
	})

	if page.doc.Find("[role]").Length() > 0 {
		score = min(100, score+5)
	}

	return clampScore(score)
}

func bestPracticesScore(page *Page, fetch *FetchResult, pageURL *url.URL) int {
	score := 100

	if pageURL.Scheme != "https" {
		score -= 20
	}
	if page.doc.Find(`meta[name="viewport"]`).Length() == 0 {
		score -= 15
	}
	if !page.HasDoctype() {
		score -= 10
	}
	if page.doc.Find("meta[charset]").Length() == 0 &&
		page.doc.Find(`meta[http-equiv="Content-Type"]`).Length() == 0 {
		score -= 10
	}

	for _, header := range securityHeaders {
		if fetch.Header.Get(header) == "" {
			score -= 5
		}
	}

	if insecure := countInsecureSubresources(page); insecure > 0 {
		score -= min(20, insecure*2)
	}

	return clampScore(score)
}

func seoScore(page *Page) int {
	score := 100

	if title := page.Title(); title == "" {
		score -= 20
	} else if l := len([]rune(title)); l < titleLengthMin || l > titleLengthMax {
		score -= 10
	}

	if desc := page.MetaDescription(); desc == "" {
		score -= 20
	} else if l := len([]rune(desc)); l < descriptionLengthMin || l > descriptionLengthMax {
		score -= 10
	}

	if page.doc.Find("h1").Length() == 0 {
		score -= 15
	}
	if page.doc.Find(`link[rel="canonical"]`).Length() == 0 {
		score -= 10
	}

	robots := page.doc.Find(`meta[name="robots"]`).First().AttrOr("content", "")
	if strings.Contains(strings.ToLower(robots), "noindex") {
		score -= 15
	}

	// Raw ld+json script presence counts here, even if the block fails
	// to parse as JSON.
	if page.doc.Find(`script[type="application/ld+json"]`).Length() > 0 {
		score = min(100, score+10)
	}

	return clampScore(score)
}

// collectFindings produces the informational audit list. Findings are
// observations for humans; they do not feed back into the scores.
func collectFindings(page *Page, seconds float64, pageURL *url.URL) []model.Finding {
	var findings []model.Finding

	if seconds > 1 {
		severity := model.SeverityWarning
		if seconds > 3 {
			severity = model.SeverityError
		}
		findings = append(findings, model.Finding{
			Category:    model.CategoryPerformance,
			Title:       "Server Response Time",
			Description: fmt.Sprintf("Response time is %.2fs. Aim for under 600ms.", seconds),
			Severity:    severity,
		})
	}

	if missing := countMissingAlt(page.doc.Find("img")); missing > 0 {
		findings = append(findings, model.Finding{
			Category:    model.CategoryAccessibility,
			Title:       "Image Alt Attributes",
			Description: fmt.Sprintf("%d images missing alt attributes.", missing),
			Severity:    model.SeverityWarning,
		})
	}

	if page.Title() == "" {
		findings = append(findings, model.Finding{
			Category:    model.CategorySEO,
			Title:       "Document Title",
			Description: "The page is missing a title tag.",
			Severity:    model.SeverityError,
		})
	}

	if page.MetaDescription() == "" {
		findings = append(findings, model.Finding{
			Category:    model.CategorySEO,
			Title:       "Meta Description",
			Description: "The page is missing a meta description.",
			Severity:    model.SeverityError,
		})
	}

	if pageURL.Scheme != "https" {
		findings = append(findings, model.Finding{
			Category:    model.CategoryBestPractices,
			Title:       "HTTPS Usage",
			Description: "The page is not served over HTTPS.",
			Severity:    model.SeverityError,
		})
	}

	return findings
}

func countMissingAlt(images *goquery.Selection) int {
	missing := 0
	images.Each(func(_ int, img *goquery.Selection) {
		if img.AttrOr("alt", "") == "" {
			missing++
		}
	})
	return missing
}

func countInsecureSubresources(page *Page) int {
	return page.doc.Find(`script[src^="http://"], img[src^="http://"], link[href^="http://"]`).Length()
}

func clampScore(score int) int {
	return max(0, min(100, score))
}
