package model

import "encoding/json"

// Patch は部分更新リクエストの1フィールドを表す。
// 「未指定」「明示的なnull」「値あり」の3状態を区別する。
// JSONボディに現れなかったフィールドはSet=falseのゼロ値のまま残る。
type Patch[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON はフィールドがJSONに存在した場合のみ呼ばれる。
func (p *Patch[T]) UnmarshalJSON(b []byte) error {
	p.Set = true
	if string(b) == "null" {
		p.Null = true
		return nil
	}
	return json.Unmarshal(b, &p.Value)
}

// Present は値ありでフィールドが指定されたかどうかを返す。
func (p Patch[T]) Present() bool {
	return p.Set && !p.Null
}
