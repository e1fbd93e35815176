package fictitious

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/domain"
	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/ranked"
	"github.com/kailas-cloud/recollect/internal/logger"
)

const (
	// Size is the number of invented entries requested and returned.
	Size = 3
	// PlaceholderURL stands in for a detail page that does not exist.
	PlaceholderURL = "#"
	// PlaceholderImage stands in for a cover image that does not exist.
	PlaceholderImage = "https://via.placeholder.com/200x300.png?text=Generated+Image"
)

const systemPrompt = `あなたはアダルト動画の作品を考えるクリエイターです。
ユーザーが覚えている作品の説明に合いそうな、架空の作品を3つ考えてください。
実在する作品や実在する人物の名前は使わないでください。
出力は次の形のJSONオブジェクトだけにしてください。説明文やマークダウンのコードブロックは付けないでください。
{"results": [
  {"title": "架空のタイトル", "affiliateURL": "#",
   "imageURL": {"large": "` + PlaceholderImage + `"},
   "iteminfo": {"actress": [{"name": "架空の女優名"}]},
   "score": 90, "reason": "この作品を提案した理由"}
]}
score は説明との一致度を0から100の整数で付けてください。`

// Service synthesizes invented catalog entries. It never fails: any gateway
// or parse problem yields an empty list.
type Service struct {
	llm         Completer
	temperature float32
}

// New creates a fictitious generation service.
func New(llm Completer, temperature float32) *Service {
	return &Service{llm: llm, temperature: temperature}
}

// Generate returns at most Size invented entries in the LLM's order.
func (s *Service) Generate(ctx context.Context, query string) []ranked.Result {
	log := logger.FromContext(ctx).With(zap.String("op", "fictitious.generate"))

	completion, err := s.llm.Complete(ctx, domain.Prompt{
		System:      systemPrompt,
		User:        fmt.Sprintf("作品の説明: %q", query),
		JSON:        true,
		Temperature: s.temperature,
	})
	if err != nil {
		log.Warn("Fictitious generation failed", zap.Error(err))
		return nil
	}

	entries, err := parseEntries(completion.Text)
	if err != nil {
		log.Warn("Fictitious reply unparseable", zap.Error(err), zap.Int("reply_len", len(completion.Text)))
		return nil
	}

	out := make([]ranked.Result, 0, Size)
	for i := range entries {
		if len(out) == Size {
			break
		}
		e := &entries[i]
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		item := toItem(e, len(out)+1)
		out = append(out, ranked.New(item, parseScore(e.Score), strings.TrimSpace(e.Reason)))
	}

	log.Debug("Fictitious entries generated", zap.Int("entries", len(out)), zap.Int("raw", len(entries)))
	return out
}

func toItem(e *entry, n int) catalog.Item {
	detail := e.DetailURL
	if detail == "" {
		detail = e.AffiliateURL
	}
	if detail == "" {
		detail = PlaceholderURL
	}

	image := largeImage(e.ImageURL)
	if image == "" {
		image = PlaceholderImage
	}

	performers := nonEmpty(e.Performers)
	for _, a := range e.ItemInfo.Actress {
		performers = appendNonEmpty(performers, a.Name)
	}
	genres := nonEmpty(e.Genres)
	for _, g := range e.ItemInfo.Genre {
		genres = appendNonEmpty(genres, g.Name)
	}

	maker := strings.TrimSpace(e.MakerName)
	if maker == "" && len(e.ItemInfo.Maker) > 0 {
		maker = strings.TrimSpace(e.ItemInfo.Maker[0].Name)
	}

	return catalog.Item{
		ID:            fmt.Sprintf("fictitious-%d", n),
		Title:         strings.TrimSpace(e.Title),
		DetailURL:     detail,
		ThumbnailURL:  image,
		LargeImageURL: image,
		MakerName:     maker,
		Performers:    performers,
		Genres:        genres,
	}
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		out = appendNonEmpty(out, s)
	}
	return out
}

func appendNonEmpty(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(out, s)
	}
	return out
}
