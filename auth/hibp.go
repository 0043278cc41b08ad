package auth

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultHIBPURL is the public k-anonymity range endpoint.
	DefaultHIBPURL = "https://api.pwnedpasswords.com/range/"
	hibpUserAgent  = "passvault/0.1"
)

// HIBPResult captures whether a password hash suffix was found in the HIBP dataset.
type HIBPResult struct {
	Found bool
	Count int
}

// BreachChecker queries a Pwned Passwords compatible range API.
type BreachChecker struct {
	baseURL string
	client  *http.Client
}

// NewBreachChecker returns a checker for baseURL. An empty baseURL selects the
// public endpoint and a nil client gets a short timeout.
func NewBreachChecker(baseURL string, client *http.Client) *BreachChecker {
	if baseURL == "" {
		baseURL = DefaultHIBPURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if client == nil {
		client = &http.Client{Timeout: 4 * time.Second}
	}
	return &BreachChecker{baseURL: baseURL, client: client}
}

// Check queries the range API using k-anonymity.
// Only the first 5 hex chars of SHA1(pw) leave the process; the response lines
// ("SUFFIX:COUNT") are matched locally against the remaining 35.
func (c *BreachChecker) Check(ctx context.Context, pw string) (HIBPResult, error) {
	var result HIBPResult

	sum := sha1.Sum([]byte(pw))
	hashHex := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix := hashHex[:5]
	suffix := hashHex[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+prefix, nil)
	if err != nil {
		return result, fmt.Errorf("hibp request: %w", err)
	}
	req.Header.Set("User-Agent", hibpUserAgent)
	req.Header.Set("Add-Padding", "true")

	resp, err := c.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("hibp query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("hibp query: unexpected status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineSuffix, countStr, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(lineSuffix, suffix) {
			continue
		}

		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			return result, fmt.Errorf("hibp parse count: %w", err)
		}
		// Padding rows carry a zero count.
		if count == 0 {
			continue
		}

		result.Found = true
		result.Count = count
		return result, nil
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("hibp read response: %w", err)
	}
	return result, nil
}
