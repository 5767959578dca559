/*
Package server implements msgpack IPC for word splitting.

Clients write a stream of msgpack maps to stdin and read one msgpack map per
request from stdout. The first message the server writes is {"status": "ready"}.
Every request carries an ID that is echoed in its response.

# Split

A split request carries the tokens as typed and an optional variant limit:

	{"id": "req_001", "w": ["hijack"], "l": 3}

The server answers with ranked segmentations, best first:

	{"id": "req_001", "s": [{"w": ["hi", "jack"], "r": 1}], "c": 1, "f": true, "t": 85}

"f" is set when the tokens as typed ranked among the candidates: a client
should keep its input when it prefers not to go past that point. An empty
"s" with "f" set means nothing beat the input. "t" is the time taken in
microseconds.

# Other actions

	{"id": "h", "action": "health"}
	{"id": "i", "action": "info"}
	{"id": "c", "action": "set_config", "max_variants": 4, "decoder": "viterbi3"}

set_config writes the config file and rebuilds the splitter over the loaded
model; edits made to the file by hand are picked up the same way.

# Errors

	{"id": "req_002", "e": "invalid argument: token 0 is empty", "c": 400}

Codes are 400 for bad requests, 503 when the model cannot serve and 500 for
anything else.
*/
package server

// Actions accepted in Request.Action.
const (
	ActionSplit     = "split"
	ActionHealth    = "health"
	ActionInfo      = "info"
	ActionSetConfig = "set_config"
)

// Request is any client message. An empty Action means ActionSplit.
type Request struct {
	ID     string   `msgpack:"id"`
	Action string   `msgpack:"action,omitempty"`
	Words  []string `msgpack:"w,omitempty"`
	Limit  int      `msgpack:"l,omitempty"`

	// set_config fields
	MaxVariants *int    `msgpack:"max_variants,omitempty"`
	Decoder     *string `msgpack:"decoder,omitempty"`
}

// Variant is one ranked segmentation.
type Variant struct {
	Words []string `msgpack:"w"`
	Rank  uint16   `msgpack:"r"`
}

// SplitResponse answers a split request.
type SplitResponse struct {
	ID        string    `msgpack:"id"`
	Variants  []Variant `msgpack:"s"`
	Count     int       `msgpack:"c"`
	FellBack  bool      `msgpack:"f"`
	InputRank int       `msgpack:"i"` // variants ranked above the input as typed, -1 if it did not rank
	TimeTaken int64     `msgpack:"t"`
}

// StatusResponse answers health and set_config requests and announces readiness.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// InfoResponse describes the loaded model and splitter.
type InfoResponse struct {
	ID          string `msgpack:"id"`
	Status      string `msgpack:"status"`
	Order       int    `msgpack:"order"`
	MaxFreq     uint64 `msgpack:"max_freq"`
	Entries     int    `msgpack:"entries,omitempty"`
	Decoder     string `msgpack:"decoder"`
	MaxVariants int    `msgpack:"max_variants"`
	Requests    uint64 `msgpack:"requests"`
	CacheHits   uint64 `msgpack:"cache_hits"`
}

// ErrorResponse reports a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
