package record

import (
	"bytes"
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/rotisserie/eris"
)

// ErrNotObject is returned when the input is valid data but not a JSON object.
var ErrNotObject = eris.New("record: input is not a JSON object")

// Decode parses a raw candidate record. Model output frequently arrives
// wrapped in markdown fences or with small syntax defects, so a strict parse
// is followed by a json-repair pass and finally an Hjson parse.
func Decode(data []byte) (Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Record{}, eris.New("record: empty input")
	}

	normalized, err := normalizeJSON(trimmed)
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(normalized, &rec); err != nil {
		return Record{}, eris.Wrap(err, "record: decode")
	}
	return rec, nil
}

// Encode renders the record as indented JSON.
func Encode(rec Record) ([]byte, error) {
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "record: encode")
	}
	return out, nil
}

// normalizeJSON returns strict JSON for an object, trying progressively more
// lenient parsers.
func normalizeJSON(data []byte) ([]byte, error) {
	if json.Valid(data) {
		return requireObject(data)
	}

	repaired, repairErr := jsonrepair.RepairJSON(stripFences(string(data)))
	if repairErr == nil && json.Valid([]byte(repaired)) {
		return requireObject([]byte(repaired))
	}

	var generic interface{}
	if err := hjson.Unmarshal(data, &generic); err != nil {
		if repairErr != nil {
			return nil, eris.Wrapf(err, "record: unparseable input (repair: %v)", repairErr)
		}
		return nil, eris.Wrap(err, "record: unparseable input")
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, eris.Wrap(err, "record: re-encode hjson")
	}
	return requireObject(out)
}

func requireObject(data []byte) ([]byte, error) {
	var top interface{}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, eris.Wrap(err, "record: decode")
	}
	if _, ok := top.(map[string]interface{}); !ok {
		return nil, ErrNotObject
	}
	return data, nil
}

// stripFences removes a leading ``` or ```json line and a trailing ``` line.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
