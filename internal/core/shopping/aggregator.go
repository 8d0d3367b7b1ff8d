package shopping

import (
	"recipe-book/internal/pkg/common"
)

// BucketKey 彙總鍵：食材名稱 + 基礎單位
//
// 未知單位的 Unit 為原始單位字串，因此不會與已知單位或其他未知單位合併。
type BucketKey struct {
	Name string
	Base BaseUnit
	Unit string
}

// Bucket 單一食材的彙總結果
type Bucket struct {
	Key      BucketKey
	Total    Quantity
	Category string
}

// Buckets 依首次出現順序保存的彙總結果，每次請求各自建立
type Buckets struct {
	order []*Bucket
	index map[BucketKey]*Bucket
}

// NewBuckets 建立空的彙總表
func NewBuckets() *Buckets {
	return &Buckets{index: make(map[BucketKey]*Bucket)}
}

// Add 加入一筆食材；數量無法解析時略過並回傳 false
func (b *Buckets) Add(ing common.Ingredient) bool {
	q, ok := Normalize(ing.Amount, ing.Unit)
	if !ok {
		return false
	}

	key := BucketKey{Name: NormalizeName(ing.Name), Base: q.Base, Unit: q.Unit}
	bucket, exists := b.index[key]
	if !exists {
		category := ing.Category
		if category == "" {
			category = common.DefaultCategory
		}
		// 分類以第一次出現的食材為準
		bucket = &Bucket{
			Key:      key,
			Total:    Quantity{Base: q.Base, Unit: q.Unit},
			Category: category,
		}
		b.index[key] = bucket
		b.order = append(b.order, bucket)
	}
	bucket.Total.Amount += q.Amount
	return true
}

// Len 彙總項目數量
func (b *Buckets) Len() int {
	return len(b.order)
}

// Get 依鍵取得彙總項目
func (b *Buckets) Get(key BucketKey) (Bucket, bool) {
	bucket, ok := b.index[key]
	if !ok {
		return Bucket{}, false
	}
	return *bucket, true
}

// Items 依首次出現順序回傳彙總項目
func (b *Buckets) Items() []Bucket {
	out := make([]Bucket, len(b.order))
	for i, bucket := range b.order {
		out[i] = *bucket
	}
	return out
}

// Aggregate 彙總多份已縮放的食材清單，回傳被略過（數量無法解析）的筆數
func Aggregate(lists [][]common.Ingredient) (*Buckets, int) {
	buckets := NewBuckets()
	skipped := 0
	for _, list := range lists {
		for _, ing := range list {
			if !buckets.Add(ing) {
				skipped++
			}
		}
	}
	return buckets, skipped
}
