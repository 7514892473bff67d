package translate

import "regexp"

var japanesePattern = regexp.MustCompile(`[\p{Hiragana}\p{Katakana}\p{Han}]`)

// ContainsJapanese reports whether s has any kana or kanji
func ContainsJapanese(s string) bool {
	return japanesePattern.MatchString(s)
}

// JudgeGlossary maps risk categories to their fixed English labels
var JudgeGlossary = map[string]string{
	"潜在軽微":   "Potential Minor",
	"潜在重大":   "Potential Major",
	"緊急軽微":   "Immediate Minor",
	"緊急重大":   "Immediate Major",
	"安全":     "Safe",
	"特に心配なし": "No particular concern",
}

// ObjectGlossary maps object and landmark names seen in the dataset
var ObjectGlossary = map[string]string{
	"布（ふきん）":     "Cloth (dish towel)",
	"包丁":         "Knife",
	"ケーブル, 掃除機":  "Cable, Vacuum cleaner",
	"洗面台":        "Sink/Vanity",
	"収納扉":        "Storage door",
	"電気ヒーター, 衣類": "Electric heater, Clothing",
	"ハサミ":        "Scissors",
}

// Field names by treatment
var (
	judgeFields  = map[string]bool{"risk_judge": true, "updated_judge_01": true, "updated_judge_02": true}
	objectFields = map[string]bool{"object_name": true, "landmark_name": true}
	reasonFields = map[string]bool{"risk_reason": true, "updated_reason_01": true, "updated_reason_02": true}
)
