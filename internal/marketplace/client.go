// Package marketplace is the HTTP adapter for the supply marketplace. It
// handles authentication, part searches, supplier profile lookups and
// inquiry submission, and translates result pages into domain rows.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/internal/sourcing/ports"
	"sourcing_backend/platform/apperr"
	"sourcing_backend/platform/config"
	"sourcing_backend/platform/logger"
)

const (
	loginPath   = "/Login"
	searchPath  = "/Search"
	profilePath = "/CompanyProfile"
	inquiryPath = "/SendInquiry"
)

// requestsPerSecond caps the request rate of one session. The marketplace
// throttles aggressive clients, so we stay well under its limits.
const requestsPerSecond = 0.5

// Client opens authenticated marketplace sessions.
type Client struct {
	baseURL  string
	account  string
	username string
	password string
	timeout  time.Duration
	log      *logger.Logger
}

// NewClient builds a session factory from configuration.
func NewClient(cfg config.MarketplaceConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.GetMarketplaceBaseURL(), "/"),
		account:  cfg.GetMarketplaceAccount(),
		username: cfg.GetMarketplaceUsername(),
		password: cfg.GetMarketplacePassword(),
		timeout:  cfg.GetMarketplaceTimeout(),
		log:      log,
	}
}

// NewSession logs in and returns a session bound to the resulting cookie
// jar. Each worker holds its own session; sessions are not safe for
// concurrent use.
func (c *Client) NewSession(ctx context.Context) (ports.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFatal, "create cookie jar", err)
	}

	s := &session{
		http: &http.Client{
			Jar:     jar,
			Timeout: c.timeout,
		},
		baseURL: c.baseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		log:     c.log,
	}

	if err := s.login(ctx, c.account, c.username, c.password); err != nil {
		return nil, err
	}
	return s, nil
}

type session struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	log     *logger.Logger
	closed  bool
}

func (s *session) login(ctx context.Context, account, username, password string) error {
	form := url.Values{
		"AccountNumber": {account},
		"UserName":      {username},
		"Password":      {password},
	}
	resp, err := s.postForm(ctx, loginPath, form)
	if err != nil {
		return apperr.Wrap(apperr.KindFatal, "marketplace login", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.Fatal(fmt.Sprintf("marketplace login: status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.KindFatal, "marketplace login: read response", err)
	}
	// The login endpoint answers 200 on bad credentials and re-renders the
	// form, so the response body is the only reliable signal.
	if strings.Contains(string(body), "Password") && strings.Contains(string(body), "AccountNumber") {
		return apperr.Fatal("marketplace login rejected: check credentials")
	}
	return nil
}

// Search submits a part number search and returns the parsed stock rows.
func (s *session) Search(ctx context.Context, partNumber string) ([]domain.RawRow, error) {
	form := url.Values{
		"PartsSearched[0].PartNumber": {partNumber},
	}
	resp, err := s.postForm(ctx, searchPath, form)
	if err != nil {
		return nil, classify(apperr.KindDiscovery, fmt.Sprintf("search %q", partNumber), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Discovery(fmt.Sprintf("search %q: status %d", partNumber, resp.StatusCode))
	}
	return parseSearchResults(resp.Body)
}

// MinOrderValue fetches the supplier's profile page and extracts the
// published minimum order value, if any.
func (s *session) MinOrderValue(ctx context.Context, supplier string) (*decimal.Decimal, error) {
	query := url.Values{"name": {supplier}}
	resp, err := s.get(ctx, profilePath+"?"+query.Encode())
	if err != nil {
		return nil, classify(apperr.KindDiscovery, fmt.Sprintf("profile lookup %q", supplier), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Discovery(fmt.Sprintf("profile lookup %q: status %d", supplier, resp.StatusCode))
	}
	return parseMinOrderValue(resp.Body)
}

// SubmitInquiry sends a purchase inquiry to one supplier.
func (s *session) SubmitInquiry(ctx context.Context, req ports.SubmitRequest) error {
	form := url.Values{
		"PartNumber": {req.PartNumber},
		"Supplier":   {req.Supplier},
		"Quantity":   {strconv.Itoa(req.Quantity)},
	}
	if req.Comment != "" {
		form.Set("Comment", req.Comment)
	}

	resp, err := s.postForm(ctx, inquiryPath, form)
	if err != nil {
		return classify(apperr.KindSubmission, fmt.Sprintf("submit inquiry to %q", req.Supplier), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.Submission(fmt.Sprintf("submit inquiry to %q: status %d", req.Supplier, resp.StatusCode))
	}
	return nil
}

// Close marks the session closed. The marketplace expires server-side
// sessions on its own, so no logout round trip is made.
func (s *session) Close() error {
	s.closed = true
	return nil
}

// classify wraps a transport error, promoting deadline expiry to the timeout
// kind so the orchestrator's logs separate slow suppliers from broken pages.
func classify(kind apperr.Kind, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTimeout, op, err)
	}
	return apperr.Wrap(kind, op, err)
}

func (s *session) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.http.Do(req)
}

func (s *session) get(ctx context.Context, path string) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return s.http.Do(req)
}
