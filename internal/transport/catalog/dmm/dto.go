package dmm

import (
	"encoding/json"
	"strings"
)

// flexString accepts a JSON string or number; DMM mixes both for ids and status.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if string(b) == "null" {
		*s = ""
		return nil
	}
	*s = flexString(strings.TrimSpace(string(b)))
	return nil
}

type named struct {
	ID   flexString `json:"id"`
	Name string     `json:"name"`
}

type itemListResponse struct {
	Result struct {
		Status flexString `json:"status"`
		Items  []itemDTO  `json:"items"`
	} `json:"result"`
}

type itemDTO struct {
	ContentID    string `json:"content_id"`
	ProductID    string `json:"product_id"`
	Title        string `json:"title"`
	URL          string `json:"URL"`
	AffiliateURL string `json:"affiliateURL"`
	ImageURL     struct {
		List  string `json:"list"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"imageURL"`
	ItemInfo struct {
		Genre   []named `json:"genre"`
		Series  []named `json:"series"`
		Maker   []named `json:"maker"`
		Actress []named `json:"actress"`
	} `json:"iteminfo"`
}

type actressSearchResponse struct {
	Result struct {
		Actress []named `json:"actress"`
	} `json:"result"`
}

type genreSearchResponse struct {
	Result struct {
		Genre []struct {
			GenreID flexString `json:"genre_id"`
			Name    string     `json:"name"`
		} `json:"genre"`
	} `json:"result"`
}

type seriesSearchResponse struct {
	Result struct {
		Series []struct {
			SeriesID flexString `json:"series_id"`
			Name     string     `json:"name"`
		} `json:"series"`
	} `json:"result"`
}
