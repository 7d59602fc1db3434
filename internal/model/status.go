package model

// CrawlState is the lifecycle state of one seed URL.
type CrawlState string

// Seed states. Everything except CrawlCrawling is terminal.
const (
	CrawlCrawling  CrawlState = "crawling"
	CrawlSkipped   CrawlState = "skipped"
	CrawlCompleted CrawlState = "completed"
	CrawlFailed    CrawlState = "failed"
)

// Terminal reports whether s can no longer change.
func (s CrawlState) Terminal() bool {
	return s != CrawlCrawling
}

// CrawlStatus reports the outcome of one seed URL.
type CrawlStatus struct {
	URL            string     `json:"url"`
	Status         CrawlState `json:"status"`
	CompaniesFound int        `json:"companies_found"`
	Message        string     `json:"message,omitempty"`
}

// NewCrawlStatus starts a seed in the crawling state.
func NewCrawlStatus(url string) CrawlStatus {
	return CrawlStatus{URL: url, Status: CrawlCrawling}
}

// NewSkippedStatus records a seed that was never traversed.
func NewSkippedStatus(url, message string) CrawlStatus {
	return CrawlStatus{URL: url, Status: CrawlSkipped, Message: message}
}

// Complete moves a crawling seed to completed. It returns false, leaving s
// unchanged, when s is already terminal.
func (s *CrawlStatus) Complete(found int) bool {
	return s.finish(CrawlCompleted, found, "")
}

// Fail moves a crawling seed to failed with a reason. It returns false,
// leaving s unchanged, when s is already terminal.
func (s *CrawlStatus) Fail(found int, message string) bool {
	return s.finish(CrawlFailed, found, message)
}

func (s *CrawlStatus) finish(to CrawlState, found int, message string) bool {
	if s.Status.Terminal() {
		return false
	}
	s.Status = to
	s.CompaniesFound = max(found, 0)
	s.Message = message
	return true
}
