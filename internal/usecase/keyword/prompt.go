package keyword

import (
	"fmt"
	"strings"

	domkw "github.com/kailas-cloud/recollect/internal/domain/keyword"
)

const extractSystemPrompt = `あなたはアダルト動画カタログの検索アシスタントです。
ユーザーが曖昧に覚えている作品の説明から、カタログ検索に使うキーワードを抽出してください。
キーワードは次の4つの分類に振り分けます。
- title: 作品タイトルに含まれていそうな語句
- genre: ジャンルや属性 (例: 学園, 人妻, ドラマ)
- series: シリーズ名
- actor: 出演者の名前 (はっきり名前が挙がっている場合のみ)
出力は次の形のJSONオブジェクトだけにしてください。説明文やマークダウンのコードブロックは付けないでください。
{"title": [], "genre": [], "series": [], "actor": []}
該当するものがない分類は空配列にしてください。各語句は短く、検索にそのまま使える形にしてください。`

const broaderSystemPrompt = `あなたはアダルト動画カタログの検索アシスタントです。
前回のキーワードではカタログで作品が見つかりませんでした。
ユーザーの説明をもとに、前回よりも短く一般的なキーワードを考え直してください。
固有名詞は表記揺れの少ない形にし、細かすぎる語句は外してください。
出力は次の形のJSONオブジェクトだけにしてください。説明文やマークダウンのコードブロックは付けないでください。
{"title": [], "genre": [], "series": [], "actor": []}`

func extractUserPrompt(query string) string {
	return fmt.Sprintf("作品の説明: %q", query)
}

func broaderUserPrompt(query string, previous domkw.Set) string {
	var b strings.Builder
	fmt.Fprintf(&b, "作品の説明: %q\n", query)
	b.WriteString("前回のキーワード:")
	for _, p := range previous.Pairs() {
		fmt.Fprintf(&b, " %s=%s", p.Facet, p.Term)
	}
	return b.String()
}
