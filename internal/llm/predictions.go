package llm

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/games"
)

var (
	// ErrNoJSONArray is returned when the reply holds no parseable JSON array.
	ErrNoJSONArray = errors.New("llm: no valid JSON array found in response")
	// ErrInvalidFormat is returned when an item lacks gamePk or predictedWinner.
	ErrInvalidFormat = errors.New("llm: invalid prediction format")
)

var (
	jsonAPI      = jsoniter.ConfigCompatibleWithStandardLibrary
	arrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
)

const promptTemplate = `You are a baseball analytics expert. Analyze these MLB games and predict the winners.

Input Game Data:
%s

IMPORTANT: Respond ONLY with a JSON array in the following exact format, with no additional text or explanation:
[
  {
    "gamePk": "game_pk_here",
    "predictedWinner": team_id_here
  }
]

Base your predictions on the team stats provided. Your response must be valid JSON that can be parsed with JSON.parse().`

// BuildPrompt renders the fixed prediction prompt around the games.
func BuildPrompt(gamesWithStats []games.GameWithStats) (string, error) {
	data, err := jsonAPI.MarshalIndent(gamesWithStats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("llm: encode games: %w", err)
	}
	return fmt.Sprintf(promptTemplate, data), nil
}

// FlexibleID decodes an id the model may emit as a number or a numeric string.
type FlexibleID int

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := jsonAPI.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", data)
	}
	*f = FlexibleID(n)
	return nil
}

// Answer is one model prediction before it is joined with game info.
type Answer struct {
	GamePk          FlexibleID `json:"gamePk"`
	PredictedWinner FlexibleID `json:"predictedWinner"`
}

// ParseAnswers reads the reply as a JSON array, falling back to the first [{...}] block.
// Every item must carry a non-zero gamePk and predictedWinner.
func ParseAnswers(text string) ([]Answer, error) {
	var answers []Answer
	if err := jsonAPI.UnmarshalFromString(strings.TrimSpace(text), &answers); err != nil {
		match := arrayPattern.FindString(text)
		if match == "" {
			return nil, ErrNoJSONArray
		}
		answers = nil
		if err := jsonAPI.UnmarshalFromString(match, &answers); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoJSONArray, err)
		}
	}
	if answers == nil {
		return nil, ErrInvalidFormat
	}
	for _, a := range answers {
		if a.GamePk == 0 || a.PredictedWinner == 0 {
			return nil, ErrInvalidFormat
		}
	}
	return answers, nil
}
