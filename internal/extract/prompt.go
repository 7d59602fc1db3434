package extract

import (
	"fmt"
	"strings"

	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/internal/preprocess"
)

const (
	// MaxPromptContent bounds the page content sent to the model.
	MaxPromptContent = 15000
	// MaxPromptElements bounds the rendered interactive elements.
	MaxPromptElements = 10000
)

const listingSystemPrompt = `You extract SUPPLIER, MANUFACTURER and SERVICE PROVIDER companies from directories, B2B platforms and listing pages.

TASK 1: COMPANIES
Extract every legitimate business in the content that matches the user's query.
- Directories and B2B platforms: look for lists, tables and repeated blocks of company details. Extract every entry, even with incomplete contact details.
- Company profile pages: extract the main company with all available contact details.

For each company return:
- "name": the business name (never a page title such as "Home" or "About Us")
- "website": company website URL, if present
- "email": contact email, if present
- "phone": phone number, if present
- "address": physical address or at least city and country, if present
- "description": short description of products or services, if present
Missing fields may be null or omitted.

DO NOT EXTRACT:
- Buyer requests ("Looking for suppliers of...", "I need...")
- Error or block pages (403, 404, "Access Denied", Cloudflare)
- Navigation labels ("Contact Us", "Login", "Sign Up")
- Forum questions and discussion threads
- Category names and section headings used as names

TASK 2: PAGINATION
Look in the interactive elements for "Next", ">", "Load More" or page numbers.
- "next_page_url": the href of the control leading to the next page of results
- "pagination_selector": a CSS selector for that control (e.g. "a.next-page")
Use null when there is no next page.

Return ONLY JSON:
{"companies": [...], "next_page_url": "..." | null, "pagination_selector": "..." | null}`

const enrichSystemPrompt = `You complete the profile of ONE named company from the content of a web page.

Return every company on the page that could be the requested one, with:
"name", "website", "email", "phone", "address", "description".
Use null for details the page does not state. Never invent details.

Return ONLY JSON:
{"companies": [...]}`

func buildListingPrompt(in Input) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "User Query: %s\n", in.Query)
	if in.URL != "" {
		fmt.Fprintf(&sb, "Page URL: %s\n", in.URL)
	}
	sb.WriteString("\n--- CONTENT (for companies) ---\n")
	sb.WriteString(preprocess.Truncate(in.Content, MaxPromptContent))
	sb.WriteString("\n\n--- INTERACTIVE ELEMENTS (for pagination) ---\n")
	sb.WriteString(preprocess.Truncate(in.Elements, MaxPromptElements))
	sb.WriteString("\n")
	return sb.String()
}

func buildEnrichPrompt(c model.Company, content, country string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", c.Name)
	if c.Website != "" {
		fmt.Fprintf(&sb, "Known website: %s\n", c.Website)
	}
	if c.Address != "" {
		fmt.Fprintf(&sb, "Known address: %s\n", c.Address)
	}
	if country != "" {
		fmt.Fprintf(&sb, "Country: %s\n", country)
	}
	sb.WriteString("\n--- PAGE CONTENT ---\n")
	sb.WriteString(preprocess.Truncate(content, MaxPromptContent))
	sb.WriteString("\n")
	return sb.String()
}
