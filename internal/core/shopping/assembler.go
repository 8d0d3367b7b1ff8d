package shopping

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultPriority 分類不在排序表中時使用的排序值
const DefaultPriority = 99

// Item 購物清單項目
type Item struct {
	Name        string  `json:"name"`
	TotalAmount float64 `json:"totalAmount"`
	Unit        string  `json:"unit"`
}

// PurchaseAmount 購買數量：小於 1 取 1，否則四捨五入到整數
func PurchaseAmount(displayAmount float64) float64 {
	if displayAmount < 1 {
		return 1
	}
	return math.Round(displayAmount)
}

// Assemble 將彙總結果轉為顯示單位並依分類排序
//
// 排序為穩定排序，相同排序值的項目保持彙總時的順序。
func Assemble(buckets *Buckets, priorities map[string]int, defaultPriority int) []Item {
	type ranked struct {
		item     Item
		priority int
	}

	entries := make([]ranked, 0, buckets.Len())
	for _, bucket := range buckets.Items() {
		amount, unit := ToDisplay(bucket.Total)

		priority, ok := priorities[bucket.Category]
		if !ok {
			priority = defaultPriority
		}

		entries = append(entries, ranked{
			item: Item{
				Name:        bucket.Key.Name,
				TotalAmount: PurchaseAmount(amount),
				Unit:        unit,
			},
			priority: priority,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})

	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = e.item
	}
	return items
}

// FormatTodo 輸出待辦清單文字，每行一項：「<verb> <數量> <單位> <名稱>」
func FormatTodo(items []Item, verb string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("%s %s %s %s",
			verb, FormatAmount(item.TotalAmount), item.Unit, item.Name)))
	}
	return strings.Join(lines, "\n")
}
