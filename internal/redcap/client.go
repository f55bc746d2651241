// Package redcap implements the client for the REDCap API, the system of
// record for participant enrollment and survey status. All calls are
// form-encoded POSTs against a single API endpoint, distinguished by the
// "content" field.
package redcap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/seattleflu/husky-musher/internal/cache"
	"github.com/seattleflu/husky-musher/internal/config"
	"github.com/seattleflu/husky-musher/internal/metrics"
	"github.com/seattleflu/husky-musher/internal/shibboleth"
)

// ErrAmbiguousNetID means more than one REDCap record matched a NetID.
// The project keys participants by NetID, so this indicates a data problem
// that needs manual cleanup, not a pick-one situation.
var ErrAmbiguousNetID = errors.New("multiple REDCap records match the given NetID")

type Client struct {
	cfg     config.REDCapConfig
	http    *http.Client
	cache   *cache.Cache
	limiter *rate.Limiter
}

func NewClient(cfg config.REDCapConfig, recordCache *cache.Cache) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   recordCache,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// FetchParticipant exports the REDCap record matching the given user's
// NetID. Returns (nil, nil) when no record exists. Records with completed
// registration are served from and written through the cache; everyone
// else gets a fresh export so status changes show up immediately.
func (c *Client) FetchParticipant(ctx context.Context, info shibboleth.UserInfo) (Record, error) {
	if cached, ok := c.cachedRecord(ctx, info.NetID); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	fields := []string{
		"uw_netid",
		"record_id",
		RegistrationInstrument + "_complete",
	}
	body, err := c.post(ctx, "fetch_participant", url.Values{
		"content":                {"record"},
		"format":                 {"json"},
		"type":                   {"flat"},
		"csvDelimiter":           {""},
		"filterLogic":            {fmt.Sprintf(`[uw_netid] = "%s"`, sanitizeFilterValue(info.NetID))},
		"fields":                 {strings.Join(fields, ",")},
		"rawOrLabel":             {"raw"},
		"rawOrLabelHeaders":      {"raw"},
		"exportCheckboxLabel":    {"false"},
		"exportSurveyFields":     {"false"},
		"exportDataAccessGroups": {"false"},
		"returnFormat":           {"json"},
	})
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode record export: %w", err)
	}

	switch len(records) {
	case 0:
		return nil, nil
	case 1:
		record := records[0]
		if record.RegistrationComplete() {
			c.cacheRecord(ctx, info.NetID, record)
		}
		return record, nil
	default:
		return nil, fmt.Errorf("%w (%d records)", ErrAmbiguousNetID, len(records))
	}
}

// RegisterParticipant imports a new record carrying the user's identity
// attributes and returns the record ID REDCap assigned.
func (c *Client) RegisterParticipant(ctx context.Context, info shibboleth.UserInfo) (string, error) {
	// REDCap requires a non-empty record ID even though forceAutoNumber
	// makes it assign the real one.
	payload, err := json.Marshal([]shibboleth.UserInfo{info})
	if err != nil {
		return "", fmt.Errorf("encode registration: %w", err)
	}
	data, err := withPlaceholderRecordID(payload)
	if err != nil {
		return "", fmt.Errorf("encode registration: %w", err)
	}

	body, err := c.post(ctx, "register_participant", url.Values{
		"content":           {"record"},
		"format":            {"json"},
		"type":              {"flat"},
		"overwriteBehavior": {"normal"},
		"forceAutoNumber":   {"true"},
		"data":              {string(data)},
		"returnContent":     {"ids"},
		"returnFormat":      {"json"},
	})
	if err != nil {
		return "", err
	}

	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return "", fmt.Errorf("decode registration response: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("registration returned no record ID")
	}
	return ids[0], nil
}

// GenerateSurveyLink returns a one-time survey link for the given
// instrument within the event of the record. A positive instance selects a
// repeating-instrument instance.
func (c *Client) GenerateSurveyLink(ctx context.Context, recordID, event, instrument string, instance int) (string, error) {
	values := url.Values{
		"content":      {"surveyLink"},
		"format":       {"json"},
		"instrument":   {instrument},
		"event":        {event},
		"record":       {recordID},
		"returnFormat": {"json"},
	}
	if instance > 0 {
		values.Set("repeat_instance", strconv.Itoa(instance))
	}

	body, err := c.post(ctx, "generate_survey_link", values)
	if err != nil {
		return "", err
	}

	link := strings.TrimSpace(string(body))
	if link == "" {
		return "", fmt.Errorf("surveyLink returned an empty body")
	}
	return link, nil
}

// Version asks the REDCap instance for its version. Used as a cheap
// reachability probe by the health checker.
func (c *Client) Version(ctx context.Context) (string, error) {
	body, err := c.post(ctx, "version", url.Values{
		"content": {"version"},
		"format":  {"json"},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// CurrentWeek returns the 1-based study week containing now, relative to
// the configured study start date.
func (c *Client) CurrentWeek(now time.Time) int {
	return 1 + daysSince(c.cfg.StudyStartDate, now)/7
}

// TodaysRepeatInstance returns the 1-based repeat instance for daily
// instruments: day 1 is the study start date itself.
func (c *Client) TodaysRepeatInstance(now time.Time) int {
	return 1 + daysSince(c.cfg.StudyStartDate, now)
}

func daysSince(start, now time.Time) int {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	now = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(now.Sub(start).Hours() / 24)
}

func (c *Client) post(ctx context.Context, function string, values url.Values) ([]byte, error) {
	timer := prometheus.NewTimer(metrics.REDCapRequestSeconds.WithLabelValues(function))
	defer timer.ObserveDuration()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("redcap %s: %w", function, err)
	}

	values.Set("token", c.cfg.APIToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("redcap %s: %w", function, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("redcap %s: %w", function, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("redcap %s: read response: %w", function, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("redcap %s: status %d", function, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) cachedRecord(ctx context.Context, netid string) (Record, bool) {
	if c.cache == nil || netid == "" {
		return nil, false
	}
	value, ok, err := c.cache.Get(ctx, netid)
	if err != nil || !ok {
		return nil, false
	}
	var record Record
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, false
	}
	return record, true
}

func (c *Client) cacheRecord(ctx context.Context, netid string, record Record) {
	if c.cache == nil || netid == "" {
		return
	}
	value, err := json.Marshal(record)
	if err != nil {
		return
	}
	// Cache failures are not fatal; the next visit just hits REDCap again.
	_ = c.cache.Set(ctx, netid, string(value))
}

// sanitizeFilterValue strips characters that would terminate the quoted
// filterLogic literal. NetIDs are validated upstream, so this is only a
// backstop.
func sanitizeFilterValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '[', ']':
			return -1
		}
		return r
	}, value)
}

// withPlaceholderRecordID injects the mandatory record_id placeholder into
// an encoded registration payload.
func withPlaceholderRecordID(payload []byte) ([]byte, error) {
	var records []map[string]string
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, err
	}
	for _, record := range records {
		record["record_id"] = "record ID cannot be blank"
	}
	return json.Marshal(records)
}
