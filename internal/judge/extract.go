package judge

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/logging"
)

// Stage names the extraction attempt that produced a payload
type Stage string

const (
	StageStrict    Stage = "strict"
	StageFenced    Stage = "fenced"
	StageBraceScan Stage = "brace_scan"
	StageEmpty     Stage = "empty"
)

// emptyObject is what callers read as "keep the prior value"
var emptyObject = json.RawMessage(`{}`)

// fenceRe matches a markdown code fence (``` or ~~~) with an optional language
// tag anywhere in the text and captures its body.
var fenceRe = regexp.MustCompile("(?s)(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})")

// invalidJSONEscapeRe matches a backslash followed by a character that is not a
// valid JSON escape. Models quote regexes like \d unescaped.
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

// ExtractJSON pulls a JSON object out of free-text model output. Attempts run
// strict parse, then fenced blocks, then the outermost brace span; when all
// fail the result is the empty object. Every attempt is logged at debug.
func ExtractJSON(text string, logger *zap.Logger) (json.RawMessage, Stage) {
	logger = logging.OrNop(logger)
	text = strings.TrimSpace(text)

	if obj, ok := parseObject(text); ok {
		logAttempt(logger, StageStrict, true)
		return obj, StageStrict
	}
	logAttempt(logger, StageStrict, false)

	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		if obj, ok := parseObject(strings.TrimSpace(m[1])); ok {
			logAttempt(logger, StageFenced, true)
			return obj, StageFenced
		}
	}
	logAttempt(logger, StageFenced, false)

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if obj, ok := parseObject(text[start : end+1]); ok {
			logAttempt(logger, StageBraceScan, true)
			return obj, StageBraceScan
		}
	}
	logAttempt(logger, StageBraceScan, false)

	logger.Warn("judge response contained no parseable JSON object",
		zap.Int("length", len(text)))
	return emptyObject, StageEmpty
}

// parseObject accepts only JSON objects, retrying once with invalid escapes fixed
func parseObject(s string) (json.RawMessage, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	for _, candidate := range []string{s, invalidJSONEscapeRe.ReplaceAllString(s, `\\$1`)} {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return json.RawMessage(candidate), true
		}
	}
	return nil, false
}

func logAttempt(logger *zap.Logger, stage Stage, ok bool) {
	logger.Debug("json extraction attempt",
		zap.String("stage", string(stage)),
		zap.Bool("ok", ok))
}
