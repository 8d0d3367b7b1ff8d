package shopping

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// BaseUnit 彙總時使用的基礎單位
type BaseUnit string

const (
	BaseGram  BaseUnit = "g"
	BaseMl    BaseUnit = "ml"
	BasePiece BaseUnit = "tk"
	BaseJar   BaseUnit = "prk"
	BaseOther BaseUnit = "other"
)

// coarseThreshold 達到此基礎量時改以 kg / l 顯示
const coarseThreshold = 1000

type unitDef struct {
	base   BaseUnit
	factor float64
}

// unitTable 已知單位對應的基礎單位與倍率
var unitTable = map[string]unitDef{
	"g":    {base: BaseGram, factor: 1},
	"kg":   {base: BaseGram, factor: 1000},
	"ml":   {base: BaseMl, factor: 1},
	"l":    {base: BaseMl, factor: 1000},
	"tk":   {base: BasePiece, factor: 1},
	"prk":  {base: BaseJar, factor: 1},
	"purk": {base: BaseJar, factor: 1},
}

// Quantity 標準化後的數量
//
// Unit 對已知單位為基礎單位本身，對未知單位則保留原始字串，顯示時使用。
type Quantity struct {
	Amount float64
	Base   BaseUnit
	Unit   string
}

// ParseAmount 解析數量字串，接受小數點與單一小數逗號；含千分位分隔的字串視為無法解析
func ParseAmount(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Normalize 將數量與單位轉換為基礎單位；數量無法解析時回傳 false
func Normalize(amountText, unit string) (Quantity, bool) {
	numeric, ok := ParseAmount(amountText)
	if !ok {
		return Quantity{}, false
	}

	token := strings.TrimSpace(unit)
	def, known := unitTable[strings.ToLower(token)]
	if !known {
		return Quantity{Amount: numeric, Base: BaseOther, Unit: token}, true
	}

	return Quantity{
		Amount: numeric * def.factor,
		Base:   def.base,
		Unit:   string(def.base),
	}, true
}

// ToDisplay 將基礎量轉換為易讀的顯示單位
func ToDisplay(q Quantity) (float64, string) {
	switch q.Base {
	case BaseGram:
		if q.Amount >= coarseThreshold {
			return Round2(q.Amount / 1000), "kg"
		}
		return q.Amount, string(BaseGram)
	case BaseMl:
		if q.Amount >= coarseThreshold {
			return Round2(q.Amount / 1000), "l"
		}
		return q.Amount, string(BaseMl)
	case BaseOther:
		return q.Amount, q.Unit
	default:
		return q.Amount, string(q.Base)
	}
}

// Round2 四捨五入到小數點後兩位
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount 以最短形式輸出數量（200 → "200"，0.8 → "0.8"）
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NormalizeName 食材名稱的彙總鍵：去除前後空白並做 NFC 正規化
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
