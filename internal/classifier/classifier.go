// Package classifier определяет категорию обоев по ключевым словам в имени файла.
package classifier

import "strings"

// Default - категория, если ни одно правило не сработало.
const Default = "其他"

// Rule связывает категорию с ключевыми словами (в нижнем регистре).
type Rule struct {
	Category string
	Keywords []string
}

// Matches сообщает, содержит ли имя (в нижнем регистре) хотя бы одно ключевое слово.
func (r Rule) Matches(lowerName string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}

// Rules - правила в порядке приоритета. Побеждает первое совпадение, а не лучшее.
var Rules = []Rule{
	{Category: "幻想", Keywords: []string{
		"fantasy", "mythical", "monster", "demon", "angel", "dragon", "幻想", "神话",
		"魔幻", "怪兽", "恶魔", "天使", "龙", "巨兽", "巨眼", "废土", "鲛人", "魔物", "折翼天使",
		"末日", "异世界", "魔法", "神秘", "超现实",
	}},
	{Category: "人物", Keywords: []string{
		"portrait", "people", "person", "人物", "美女", "少年", "公主", "御姐",
		"克杰逊", "杰克逊", "神秘人", "赛博人机女", "雨夜撑伞女", "少女", "女孩", "男性",
		"女性", "肖像", "人像", "cos", "cosplay", "明星", "合影",
	}},
	{Category: "动物", Keywords: []string{
		"animal", "pet", "bird", "wildlife", "动物", "犬", "猪", "鹿", "狐狸", "猫", "狼人",
		"小猫", "小鹿", "八戒", "竹编", "萌兽", "丘比特",
	}},
	{Category: "科技", Keywords: []string{
		"tech", "future", "sci-fi", "科技", "太空航行", "赛博", "cyber", "机械", "数字人",
		"全息", "投影", "电子", "集市",
	}},
	{Category: "风景", Keywords: []string{
		"landscape", "nature", "mountain", "sea", "sky", "sunset", "sunrise", "风景", "自然", "山水",
		"日出", "日落", "破晓", "星芒", "祥云", "青月",
	}},
	{Category: "建筑", Keywords: []string{
		"building", "city", "architecture", "street", "建筑", "城市", "工厂",
	}},
	{Category: "艺术", Keywords: []string{
		"art", "abstract", "design", "艺术", "时光之翼", "星芒破晓", "炭笔",
		"血色残阳", "详云字体", "睡梦公式", "光绘", "故障", "克莱因蓝", "4k标志",
		"手机壳", "花环", "曼陀沙华",
	}},
	{Category: "美食", Keywords: []string{"food", "drink", "dessert", "美食"}},
	{Category: "运动", Keywords: []string{"sport", "fitness", "exercise", "运动"}},
}

// Classify возвращает категорию по имени файла.
func Classify(name string) string {
	return ClassifyWith(Rules, name)
}

// ClassifyWith применяет произвольный набор правил.
func ClassifyWith(rules []Rule, name string) string {
	lower := strings.ToLower(name)
	for _, r := range rules {
		if r.Matches(lower) {
			return r.Category
		}
	}
	return Default
}

// Tags возвращает теги для имени файла. Теги намеренно не генерируются.
func Tags(string) []string {
	return nil
}
