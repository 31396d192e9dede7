package onboarding

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/leadforgehq/intake-platform/internal/intake"
)

const (
	prefillTimeout   = 15 * time.Second
	prefillUserAgent = "Mozilla/5.0"
	maxPrefillBytes  = 3 << 20
)

// Prefill holds identity-step values scraped from a prospect's website.
type Prefill struct {
	CompanyName     string `json:"companyName,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	BusinessAddress string `json:"businessAddress,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	ZipCode         string `json:"zipCode,omitempty"`
	Website         string `json:"website"`
}

// ScrapePrefill fetches a prospect's homepage and contact page and extracts
// what it can for the intake identity step. Everything is best effort; an
// unreadable site still yields a name derived from the host.
func ScrapePrefill(ctx context.Context, rawURL string) (*Prefill, error) {
	baseURL, err := normalizePrefillURL(rawURL)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: prefillTimeout}
	homeDoc, _ := fetchDocument(ctx, client, baseURL)
	contactDoc, _ := fetchDocument(ctx, client, baseURL+"/contact")
	if contactDoc == nil {
		contactDoc, _ = fetchDocument(ctx, client, baseURL+"/contact-us")
	}

	result := &Prefill{Website: baseURL}
	result.CompanyName = firstNonEmptyString(
		siteName(homeDoc),
		companyFromTitle(pageTitle(homeDoc)),
		companyFromTitle(pageTitle(contactDoc)),
		companyFromHost(baseURL),
	)

	for _, doc := range []*html.Node{contactDoc, homeDoc} {
		if doc == nil {
			continue
		}
		if result.Email == "" {
			result.Email = firstNonEmptyString(mailtoAddress(doc), extractEmail(documentText(doc)))
		}
		if result.Phone == "" {
			raw := firstNonEmptyString(telNumber(doc), extractPhone(documentText(doc)))
			digits := intake.DigitsOnly(raw)
			if len(digits) == 11 && digits[0] == '1' {
				digits = digits[1:]
			}
			if intake.PlausiblePhone(digits) {
				result.Phone = intake.FormatPhone(digits)
			}
		}
		if result.BusinessAddress == "" {
			addr, city, state, zip := extractAddress(documentText(doc))
			result.BusinessAddress = addr
			result.City = city
			result.State = state
			result.ZipCode = zip
		}
	}
	return result, nil
}

func normalizePrefillURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("onboarding: website url is required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	// Host alone is not enough: url.Parse accepts "https://://x" with a
	// bare ":" host, so check the hostname proper.
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return "", fmt.Errorf("onboarding: invalid website url")
	}
	parsed.Fragment = ""
	parsed.RawQuery = ""
	return strings.TrimRight(parsed.String(), "/"), nil
}

func fetchDocument(ctx context.Context, client *http.Client, target string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", prefillUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("onboarding: prefill fetch failed: %s", resp.Status)
	}
	return html.Parse(io.LimitReader(resp.Body, maxPrefillBytes))
}

// walk visits every node; the visitor returns false to stop.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func pageTitle(doc *html.Node) string {
	var title string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return false
		}
		return true
	})
	return title
}

// siteName reads the og:site_name meta tag, the most reliable company name
// source when present.
func siteName(doc *html.Node) string {
	var name string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "meta" &&
			attrValue(n, "property") == "og:site_name" {
			name = strings.TrimSpace(attrValue(n, "content"))
			return false
		}
		return true
	})
	return name
}

func mailtoAddress(doc *html.Node) string {
	var email string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attrValue(n, "href"); strings.HasPrefix(href, "mailto:") {
				email = strings.TrimPrefix(href, "mailto:")
				if i := strings.IndexByte(email, '?'); i >= 0 {
					email = email[:i]
				}
				return false
			}
		}
		return true
	})
	if intake.ValidEmail(email) {
		return email
	}
	return ""
}

func telNumber(doc *html.Node) string {
	var phone string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attrValue(n, "href"); strings.HasPrefix(href, "tel:") {
				phone = strings.TrimPrefix(href, "tel:")
				return false
			}
		}
		return true
	})
	return phone
}

// documentText flattens visible text, skipping script and style subtrees.
func documentText(doc *html.Node) string {
	var b strings.Builder
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.TextNode {
			return true
		}
		if p := n.Parent; p != nil && p.Type == html.ElementNode &&
			(p.Data == "script" || p.Data == "style" || p.Data == "noscript") {
			return true
		}
		text := strings.TrimSpace(n.Data)
		if text != "" {
			b.WriteString(text)
			b.WriteByte(' ')
		}
		return true
	})
	return b.String()
}

func companyFromTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	parts := strings.Split(title, "|")
	candidates := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		if strings.Contains(lower, "contact") || strings.Contains(lower, "home") || strings.Contains(lower, "services") {
			continue
		}
		candidates = append(candidates, part)
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	return candidates[0]
}

func companyFromHost(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	if host == "" {
		return ""
	}
	words := strings.Split(strings.ReplaceAll(host, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var (
	emailPattern   = regexp.MustCompile(`[\w._%+\-]+@[\w.\-]+\.[A-Za-z]{2,}`)
	phonePattern   = regexp.MustCompile(`\+?1?[\s\-.()]*\d{3}[\s\-.()]*\d{3}[\s\-.()]*\d{4}`)
	addressPattern = regexp.MustCompile(`(?i)(\d+\s+[^,]+?)[,\s]+([A-Za-z .]+),\s*([A-Z]{2})\s*(\d{5})`)
)

func extractEmail(text string) string {
	return strings.TrimSpace(emailPattern.FindString(text))
}

func extractPhone(text string) string {
	return strings.TrimSpace(phonePattern.FindString(text))
}

func extractAddress(text string) (string, string, string, string) {
	match := addressPattern.FindStringSubmatch(text)
	if len(match) < 5 {
		return "", "", "", ""
	}
	return strings.TrimSpace(match[1]), strings.TrimSpace(match[2]),
		strings.TrimSpace(match[3]), strings.TrimSpace(match[4])
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
