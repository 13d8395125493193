package repository

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tair/hiking-store/internal/store/domain"
)

// searchFields are the boosted text fields of the product index
var searchFields = []string{"title^3", "brand^2", "description"}

// QueryMode selects how strictly the text query matches
type QueryMode int

const (
	// ExactMode requires every term; no typo tolerance
	ExactMode QueryMode = iota
	// FuzzyMode tolerates typos and matches prefixes
	FuzzyMode
)

type jsonMap = map[string]interface{}

// BuildTextQuery builds the bool query matching text over fields
func BuildTextQuery(text string, fields []string, mode QueryMode) jsonMap {
	text = strings.TrimSpace(text)
	if text == "" {
		return jsonMap{"match_all": jsonMap{}}
	}

	var should []interface{}
	switch {
	case mode == ExactMode:
		for _, f := range fields {
			name, boost := splitBoost(f)
			should = append(should,
				jsonMap{"match_phrase": jsonMap{name: jsonMap{
					"query": text,
					"slop":  0,
					"boost": boost * 3,
				}}},
				jsonMap{"match": jsonMap{name: jsonMap{
					"query":     text,
					"operator":  "and",
					"fuzziness": 0,
					"boost":     boost * 2,
				}}},
			)
		}
	case utf8.RuneCountInString(text) == 1:
		pattern := "*" + text + "*"
		for _, f := range fields {
			name, _ := splitBoost(f)
			should = append(should,
				jsonMap{"wildcard": jsonMap{name + ".keyword": jsonMap{"value": pattern, "boost": 1.0}}},
				jsonMap{"wildcard": jsonMap{name: jsonMap{"value": pattern, "boost": 0.8}}},
				jsonMap{"match": jsonMap{name: jsonMap{"query": text, "operator": "or", "boost": 0.5}}},
			)
		}
	default:
		for _, f := range fields {
			name, boost := splitBoost(f)
			should = append(should,
				jsonMap{"match_phrase": jsonMap{name: jsonMap{"query": text, "boost": boost * 3}}},
				jsonMap{"prefix": jsonMap{name: jsonMap{"value": text, "boost": boost * 1.5}}},
				jsonMap{"match": jsonMap{name: jsonMap{
					"query":          text,
					"fuzziness":      "AUTO",
					"prefix_length":  1,
					"max_expansions": 50,
					"boost":          boost,
				}}},
			)
		}
	}

	return jsonMap{"bool": jsonMap{
		"should":               should,
		"minimum_should_match": 1,
	}}
}

// BuildSearchBody builds the full search request body for req
func BuildSearchBody(req domain.SearchRequest) jsonMap {
	query := BuildTextQuery(req.Query, searchFields, ExactMode)
	if req.Category != nil {
		query = jsonMap{"bool": jsonMap{
			"must":   []interface{}{query},
			"filter": []interface{}{jsonMap{"term": jsonMap{"category": string(*req.Category)}}},
		}}
	}

	return jsonMap{
		"query": query,
		"from":  req.From,
		"size":  req.Size,
		"sort": []interface{}{
			jsonMap{"_score": jsonMap{"order": "desc"}},
			jsonMap{"createdAt": jsonMap{"order": "desc"}},
		},
		"timeout":          "5s",
		"track_total_hits": true,
	}
}

func splitBoost(field string) (string, float64) {
	name, boost, found := strings.Cut(field, "^")
	if !found {
		return field, 1
	}
	b, err := strconv.ParseFloat(boost, 64)
	if err != nil {
		return name, 1
	}
	return name, b
}

// indexSettings mirrors the analyzer the catalog was first indexed with
var indexSettings = jsonMap{
	"analysis": jsonMap{
		"analyzer": jsonMap{
			"korean_analyzer": jsonMap{
				"type":      "standard",
				"tokenizer": "standard",
				"filter":    []string{"lowercase", "stop"},
			},
		},
		"filter": jsonMap{
			"stop": jsonMap{
				"type": "stop",
				"stopwords": []string{
					"의", "가", "이", "은", "는", "을", "를", "에", "와", "과", "도",
					"로", "으로", "에서", "에게", "께", "한테", "에게서", "한테서", "께서",
				},
			},
		},
	},
	"number_of_shards":   1,
	"number_of_replicas": 0,
}

var indexMappings = jsonMap{
	"properties": jsonMap{
		"title": jsonMap{
			"type":     "text",
			"analyzer": "korean_analyzer",
			"fields":   jsonMap{"keyword": jsonMap{"type": "keyword"}},
		},
		"brand": jsonMap{
			"type":     "text",
			"analyzer": "korean_analyzer",
			"fields":   jsonMap{"keyword": jsonMap{"type": "keyword"}},
		},
		"description": jsonMap{"type": "text", "analyzer": "korean_analyzer"},
		"category":    jsonMap{"type": "keyword"},
		"price":       jsonMap{"type": "integer"},
		"createdAt":   jsonMap{"type": "date"},
	},
}
