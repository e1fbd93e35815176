package fictitious

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/recollect/internal/domain"
)

// entry is one invented work as the LLM returns it. Field names vary between
// replies, so several spellings are accepted.
type entry struct {
	Title        string          `json:"title"`
	AffiliateURL string          `json:"affiliateURL"`
	DetailURL    string          `json:"detailUrl"`
	ImageURL     json.RawMessage `json:"imageURL"`
	MakerName    string          `json:"makerName"`
	Performers   []string        `json:"performers"`
	Genres       []string        `json:"genres"`
	ItemInfo     struct {
		Actress []struct {
			Name string `json:"name"`
		} `json:"actress"`
		Genre []struct {
			Name string `json:"name"`
		} `json:"genre"`
		Maker []struct {
			Name string `json:"name"`
		} `json:"maker"`
	} `json:"iteminfo"`
	Score  json.RawMessage `json:"score"`
	Reason string          `json:"reason"`
}

// parseEntries accepts {"results": [...]}, any single-key wrapper holding an array, or a bare array.
func parseEntries(text string) ([]entry, error) {
	payload := stripFence(text)

	var list []entry
	if err := json.Unmarshal([]byte(payload), &list); err == nil {
		return list, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &wrapped); err != nil {
		return nil, fmt.Errorf("decode reply: %w: %w", domain.ErrMalformedResponse, err)
	}
	if raw, ok := wrapped["results"]; ok {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode results: %w: %w", domain.ErrMalformedResponse, err)
		}
		return list, nil
	}
	if len(wrapped) == 1 {
		for _, raw := range wrapped {
			if err := json.Unmarshal(raw, &list); err == nil {
				return list, nil
			}
		}
	}
	return nil, fmt.Errorf("no result list in reply: %w", domain.ErrMalformedResponse)
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// parseScore reads a number or a numeric string such as "85" or "85%".
// Unreadable scores become 0.
func parseScore(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f + 0.5)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f + 0.5)
}

// largeImage reads imageURL as either {"large": "..."} or a plain string.
func largeImage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Large string `json:"large"`
		Small string `json:"small"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Large != "" {
			return obj.Large
		}
		return obj.Small
	}
	return ""
}
