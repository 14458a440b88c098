// Package credibility 提供基于域名信誉的来源可信度评分。
//
// 评分是确定性的纯函数：相同 URL 永远得到相同的 (score, category)，
// 不发起网络请求，不引入随机性。
//
// 分数档位：
//   - 0.95: 官方文档、学术来源
//   - 0.85: 知名技术教程、主流出版物
//   - 0.70: 社区 wiki、问答社区
//   - 0.55: 未知普通网站
//   - 0.30: 已知低质量或垃圾域名
package credibility

import (
	"net/url"
	"strings"
)

// Rating 域名信誉评级
type Rating struct {
	Score    float64
	Category string
}

// domainScores 域名信誉表
var domainScores = map[string]Rating{
	// 官方文档 (0.95)
	"docs.python.org":           {0.95, "official_docs"},
	"fastapi.tiangolo.com":      {0.95, "official_docs"},
	"flask.palletsprojects.com": {0.95, "official_docs"},
	"react.dev":                 {0.95, "official_docs"},
	"nextjs.org":                {0.95, "official_docs"},
	"vuejs.org":                 {0.95, "official_docs"},
	"angular.io":                {0.95, "official_docs"},
	"kubernetes.io":             {0.95, "official_docs"},
	"docker.com":                {0.95, "official_docs"},
	"pytorch.org":               {0.95, "official_docs"},
	"tensorflow.org":            {0.95, "official_docs"},
	"developer.mozilla.org":     {0.95, "official_docs"},
	"learn.microsoft.com":       {0.95, "official_docs"},
	"cloud.google.com":          {0.95, "official_docs"},
	"aws.amazon.com":            {0.95, "official_docs"},
	"redis.io":                  {0.95, "official_docs"},
	"postgresql.org":            {0.95, "official_docs"},
	"mongodb.com":               {0.95, "official_docs"},
	"djangoproject.com":         {0.95, "official_docs"},
	"golang.org":                {0.95, "official_docs"},
	"go.dev":                    {0.95, "official_docs"},
	"rust-lang.org":             {0.95, "official_docs"},

	// 学术与代码托管
	"arxiv.org":  {0.93, "academic"},
	"github.com": {0.90, "code_repository"},
	"gitlab.com": {0.90, "code_repository"},

	// 技术教程与博客平台
	"medium.com":        {0.70, "blog_platform"},
	"dev.to":            {0.75, "tech_community"},
	"hashnode.dev":      {0.75, "tech_community"},
	"freecodecamp.org":  {0.85, "educational"},
	"realpython.com":    {0.88, "tech_tutorial"},
	"digitalocean.com":  {0.85, "tech_tutorial"},
	"tutorialspoint.com": {0.70, "tech_tutorial"},
	"geeksforgeeks.org": {0.72, "tech_tutorial"},
	"w3schools.com":     {0.65, "tech_tutorial"},
	"baeldung.com":      {0.85, "tech_tutorial"},
	"datacamp.com":      {0.82, "educational"},

	// 社区与问答 (0.50-0.78)
	"stackoverflow.com": {0.78, "qa_community"},
	"stackexchange.com": {0.75, "qa_community"},
	"reddit.com":        {0.55, "social_community"},
	"quora.com":         {0.50, "qa_community"},

	// 技术新闻
	"techcrunch.com":  {0.80, "tech_news"},
	"wired.com":       {0.80, "tech_news"},
	"arstechnica.com": {0.82, "tech_news"},
	"theverge.com":    {0.78, "tech_news"},
	"hackernews.com":  {0.75, "tech_news"},

	// 百科
	"wikipedia.org": {0.72, "encyclopedia"},

	// 低质量指标 (0.30-0.45)
	"blogspot.com":  {0.40, "personal_blog"},
	"wordpress.com": {0.45, "personal_blog"},
}

// trustedTLDs 可信顶级域名基线分
var trustedTLDs = []struct {
	suffix string
	score  float64
}{
	{".edu", 0.90},
	{".gov", 0.92},
	{".org", 0.70},
}

// lowQualityPatterns 低质量域名的词面特征
var lowQualityPatterns = []string{
	"spam",
	"ads",
	"click",
	"free-",
	"cheap-",
	"-generator",
	"online-tool",
}

// Domain 从 URL 中提取域名，去掉 www. 前缀；解析失败返回空串。
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	domain := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(domain, "www.")
}

// Score 返回 URL 的可信度评级。
// 匹配优先级：精确域名 -> 已知域名的子域名 -> 可信 TLD -> 低质量特征 -> 默认。
func Score(rawURL string) Rating {
	if rawURL == "" {
		return Rating{0.5, "unknown"}
	}

	domain := Domain(rawURL)
	if domain == "" {
		return Rating{0.5, "unknown"}
	}

	// 精确域名匹配
	if r, ok := domainScores[domain]; ok {
		return r
	}

	// 子域名继承已知域名的评分
	for known, r := range domainScores {
		if strings.HasSuffix(domain, "."+known) {
			return r
		}
	}

	// 可信顶级域名
	for _, tld := range trustedTLDs {
		if strings.HasSuffix(domain, tld.suffix) {
			return Rating{tld.score, "trusted_tld_" + tld.suffix}
		}
	}

	// 低质量词面特征
	for _, pattern := range lowQualityPatterns {
		if strings.Contains(domain, pattern) {
			return Rating{0.30, "low_quality"}
		}
	}

	return Rating{0.55, "general"}
}
