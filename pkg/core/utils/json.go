package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

var jsonFencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*\\})\\s*```")

// ExtractJSONObject returns the JSON object embedded in a model response.
// Fenced ```json blocks win; otherwise the span from the first '{' to the
// last '}' is returned. ok is false when the text holds no object at all.
func ExtractJSONObject(input string) (string, bool) {
	if m := jsonFencePattern.FindStringSubmatch(input); len(m) > 1 {
		return m[1], true
	}
	start := strings.Index(input, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(input, "}")
	if end < start {
		// Unclosed object; leave it to RepairJSON.
		return input[start:], true
	}
	return input[start : end+1], true
}

// RepairJSON fixes the usual LLM damage: unquoted keys, single quotes,
// trailing commas, unclosed brackets, TRUE/FALSE/Null.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON parses Hjson (comments, unquoted strings, optional commas)
// and returns standard JSON.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(jsonBytes), nil
}

// SmartParse decodes input into target trying, in order, standard JSON,
// repaired JSON and Hjson. It returns the JSON text that finally decoded.
func SmartParse(input string, target interface{}) (string, error) {
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return input, nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), target); err == nil {
			return repaired, nil
		}
	}

	if converted, err := ParseHJSON(input); err == nil {
		if err := json.Unmarshal([]byte(converted), target); err == nil {
			return converted, nil
		}
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed for input")
}
