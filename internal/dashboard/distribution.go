package dashboard

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// FilterAll disables the optional single-value distribution filter.
const FilterAll = "all"

// Icon keys understood by the chart front end.
const (
	IconCircle   = "circle"
	IconEnvelope = "envelope"
	IconPhone    = "phone"
	IconComments = "comments"
	IconOther    = "puzzle-piece"
)

// Bucket is one labelled bar of a distribution chart.
type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

// Distribution is a label to count chart. Buckets appear in order of first
// occurrence; they are not sorted.
type Distribution struct {
	Days    int      `json:"days"`
	Filter  string   `json:"filter"`
	Buckets []Bucket `json:"buckets"`
	Total   int      `json:"total"`
}

type bucketCounter struct {
	dist  Distribution
	index map[string]int
}

func newBucketCounter(days int, filter string) *bucketCounter {
	return &bucketCounter{
		dist:  Distribution{Days: days, Filter: normalizeFilter(filter), Buckets: []Bucket{}},
		index: map[string]int{},
	}
}

func (b *bucketCounter) add(bucket Bucket) {
	if i, ok := b.index[bucket.Key]; ok {
		b.dist.Buckets[i].Count++
	} else {
		bucket.Count = 1
		b.index[bucket.Key] = len(b.dist.Buckets)
		b.dist.Buckets = append(b.dist.Buckets, bucket)
	}
	b.dist.Total++
}

// BuildPriorityDistribution counts tickets created within the trailing
// window by priority. A filter other than "all" keeps tickets whose
// normalized priority name contains it.
func BuildPriorityDistribution(tickets []domain.Ticket, lookups Lookups, days int, filter string, now time.Time) Distribution {
	counter := newBucketCounter(days, filter)
	cutoff := now.AddDate(0, 0, -days)
	for _, t := range tickets {
		if !withinWindow(t, cutoff) {
			continue
		}
		name, ok := lookups.Priorities[t.PriorityID]
		if !ok {
			name = "Unknown"
		}
		normalized := domain.Normalize(name)
		if counter.dist.Filter != FilterAll && !strings.Contains(normalized, counter.dist.Filter) {
			continue
		}
		counter.add(priorityBucket(name, normalized))
	}
	return counter.dist
}

func priorityBucket(name, normalized string) Bucket {
	for _, level := range []string{"low", "medium", "high", "critical"} {
		if strings.Contains(normalized, level) {
			return Bucket{Key: level, Label: capitalize(level), Icon: IconCircle}
		}
	}
	return Bucket{Key: normalized, Label: capitalize(strings.TrimSpace(name)), Icon: IconOther}
}

// BuildChannelDistribution counts tickets created within the trailing
// window by the channel they arrived through, collapsed into email, call,
// chat and other. The filter "other"/"others" selects the other bucket;
// any other value keeps buckets whose key contains it.
func BuildChannelDistribution(tickets []domain.Ticket, lookups Lookups, days int, filter string, now time.Time) Distribution {
	counter := newBucketCounter(days, filter)
	cutoff := now.AddDate(0, 0, -days)
	for _, t := range tickets {
		if !withinWindow(t, cutoff) {
			continue
		}
		bucket := channelBucket(channelName(t, lookups))
		switch f := counter.dist.Filter; {
		case f == FilterAll:
		case f == "other" || f == "others":
			if bucket.Key != "other" {
				continue
			}
		default:
			if !strings.Contains(bucket.Key, f) {
				continue
			}
		}
		counter.add(bucket)
	}
	return counter.dist
}

func channelName(t domain.Ticket, lookups Lookups) string {
	if name := lookups.ArticleTypes[t.CreateArticleTypeID]; name != "" {
		return name
	}
	if t.CreateArticleType != "" {
		return t.CreateArticleType
	}
	return "unknown"
}

func channelBucket(channel string) Bucket {
	channel = domain.Normalize(channel)
	switch {
	case strings.Contains(channel, "mail"):
		return Bucket{Key: "email", Label: "Email", Icon: IconEnvelope}
	case strings.Contains(channel, "phone"), strings.Contains(channel, "call"):
		return Bucket{Key: "call", Label: "Call", Icon: IconPhone}
	case strings.Contains(channel, "chat"), strings.Contains(channel, "telegram"), strings.Contains(channel, "sms"):
		return Bucket{Key: "chat", Label: "Chat", Icon: IconComments}
	default:
		return Bucket{Key: "other", Label: "Other", Icon: IconOther}
	}
}

// withinWindow excludes tickets without a creation time, since they cannot
// be placed in any window.
func withinWindow(t domain.Ticket, cutoff time.Time) bool {
	return !t.CreatedAt.IsZero() && !t.CreatedAt.Before(cutoff)
}

func normalizeFilter(filter string) string {
	f := domain.Normalize(filter)
	if f == "" {
		return FilterAll
	}
	return f
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
