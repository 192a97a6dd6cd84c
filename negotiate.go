// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package problem

import (
	"strconv"
	"strings"
)

// AcceptSpec is one parsed Accept header entry: a media type or pattern and
// its quality value.
type AcceptSpec struct {
	// Value is the media type or pattern, such as "application/json",
	// "application/*", or "*/*".
	Value string

	// Quality is the q parameter in [0, 1]; 1 when unspecified.
	Quality float64
}

// ParseAccept parses an Accept header into its entries. Malformed entries
// are skipped rather than failing the whole header; an unparsable q value
// leaves the entry at quality 1. Parameters other than q are ignored.
//
// Example:
//
//	ParseAccept("application/xml, application/json;q=0.5")
//	// [{application/xml 1} {application/json 0.5}]
func ParseAccept(header string) []AcceptSpec {
	if header == "" {
		return nil
	}
	var specs []AcceptSpec
	for _, part := range strings.Split(header, ",") {
		if spec, ok := parseAcceptPart(part); ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

// parseAcceptPart parses a single Accept header entry (between commas).
func parseAcceptPart(part string) (AcceptSpec, bool) {
	fields := strings.Split(part, ";")
	value := strings.TrimSpace(fields[0])
	if value == "" {
		return AcceptSpec{}, false
	}

	spec := AcceptSpec{Value: value, Quality: 1}
	for _, param := range fields[1:] {
		key, val, ok := strings.Cut(param, "=")
		if !ok || strings.TrimSpace(key) != "q" {
			continue
		}
		val = strings.TrimSpace(val)
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			val = val[1 : len(val)-1]
		}
		if q := parseQuality(val); q >= 0 {
			spec.Quality = float64(q) / 1000
		} else if q, err := strconv.ParseFloat(val, 64); err == nil && q >= 0 && q <= 1 {
			// ParseFloat catches q-values the fast path does not,
			// such as ".5"; invalid values keep the default of 1.
			spec.Quality = q
		}
	}
	return spec, true
}

// parseQuality parses a q-value like "1", "0.9", or "0.85" into integer
// thousandths (1000, 900, 850). Returns -1 on parse error.
//
// Quality values in HTTP are defined as:
//
//	qvalue = ( "0" [ "." 0*3DIGIT ] ) / ( "1" [ "." 0*3("0") ] )
func parseQuality(s string) int {
	if len(s) == 0 || len(s) > 5 { // Max valid: "1.000" or "0.999"
		return -1
	}

	if s[0] == '1' {
		if len(s) == 1 {
			return 1000
		}
		if len(s) < 3 || s[1] != '.' {
			return -1 // Invalid like "10" or "1x"
		}
		for i := 2; i < len(s); i++ {
			if s[i] != '0' {
				return -1 // Invalid like "1.5"
			}
		}
		return 1000
	}

	if s[0] == '0' {
		if len(s) == 1 {
			return 0
		}
		if len(s) < 3 || s[1] != '.' {
			return -1 // Invalid like "01" or "0."
		}
		result := 0
		multiplier := 100
		for i := 2; i < len(s) && i < 5; i++ {
			if s[i] < '0' || s[i] > '9' {
				return -1
			}
			result += int(s[i]-'0') * multiplier
			multiplier /= 10
		}
		return result
	}

	return -1
}

// matchMediaType reports how well an offered media type satisfies one Accept
// entry. Specificity ranks matches of equal quality: 4 = exact, 3 = suffix
// ("application/json" or "application/*+json" accepting
// "application/problem+json"), 2 = subtype wildcard, 1 = full wildcard,
// 0 = no match.
func matchMediaType(offer string, spec AcceptSpec) (quality float64, specificity int) {
	offerType, offerSubtype := splitMediaType(offer)
	specType, specSubtype := splitMediaType(spec.Value)

	switch {
	case specType == "*" && specSubtype == "*":
		return spec.Quality, 1
	case specType != offerType:
		return 0, 0
	case specSubtype == "*":
		return spec.Quality, 2
	case specSubtype == offerSubtype:
		return spec.Quality, 4
	}

	// Structured syntax suffix: a client asking for the base format also
	// accepts the problem variant carrying it.
	if plus := strings.LastIndexByte(offerSubtype, '+'); plus >= 0 && plus+1 < len(offerSubtype) {
		suffix := offerSubtype[plus+1:]
		if specSubtype == suffix || specSubtype == "*+"+suffix {
			return spec.Quality, 3
		}
	}
	return 0, 0
}

// splitMediaType splits a media type into lowercased type and subtype,
// dropping parameters. A missing subtype is treated as a wildcard.
func splitMediaType(mediaType string) (string, string) {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if t, s, ok := strings.Cut(mediaType, "/"); ok {
		return t, s
	}
	return mediaType, "*"
}

// Negotiator selects one of a fixed set of codecs from a request's Accept
// header. Registration order is the preference order: when two codecs match
// with equal quality and specificity the one registered first wins, and the
// first codec is the fallback when the header is absent or matches nothing.
// Negotiation never fails once a negotiator exists.
//
// A Negotiator is immutable and safe for concurrent use.
type Negotiator struct {
	codecs []Codec
}

// NewNegotiator returns a negotiator over the given codecs. It fails with
// [ErrNoCodec] when called with no codecs: the codec set is fixed at
// construction, so an empty set could never produce a response.
func NewNegotiator(codecs ...Codec) (*Negotiator, error) {
	if len(codecs) == 0 {
		return nil, ErrNoCodec
	}
	list := make([]Codec, len(codecs))
	for i, c := range codecs {
		if c == nil {
			return nil, ErrNoCodec
		}
		list[i] = c
	}
	return &Negotiator{codecs: list}, nil
}

// MustNegotiator is like [NewNegotiator] but panics on error. Intended for
// package-level negotiator variables with a known codec set.
func MustNegotiator(codecs ...Codec) *Negotiator {
	n, err := NewNegotiator(codecs...)
	if err != nil {
		panic("problem: " + err.Error())
	}
	return n
}

var defaultNegotiator = MustNegotiator(JSONCodec{}, XMLCodec{})

// DefaultNegotiator returns the negotiator used when none is configured:
// [JSONCodec] and [XMLCodec], with JSON preferred on quality ties and used
// as the fallback.
func DefaultNegotiator() *Negotiator {
	return defaultNegotiator
}

// Codecs returns the negotiator's codecs in preference order.
func (n *Negotiator) Codecs() []Codec {
	out := make([]Codec, len(n.codecs))
	copy(out, n.codecs)
	return out
}

// Default returns the fallback codec, the first one registered.
func (n *Negotiator) Default() Codec {
	return n.codecs[0]
}

// Negotiate parses an Accept header and returns the best matching codec.
// An empty header, an unparsable header, or one matching no codec all
// select the fallback codec.
func (n *Negotiator) Negotiate(accept string) Codec {
	return n.Match(ParseAccept(accept))
}

// Match returns the best codec for already-parsed Accept entries. Matches
// are ranked by quality, then specificity, then registration order. Entries
// with quality 0 exclude rather than match.
func (n *Negotiator) Match(specs []AcceptSpec) Codec {
	best := -1
	bestQuality := 0.0
	bestSpecificity := 0

	for i, c := range n.codecs {
		offer := c.MediaType()
		for _, spec := range specs {
			quality, specificity := matchMediaType(offer, spec)
			if quality <= 0 {
				continue
			}
			if quality > bestQuality || (quality == bestQuality && specificity > bestSpecificity) {
				best, bestQuality, bestSpecificity = i, quality, specificity
			}
		}
	}

	if best < 0 {
		return n.codecs[0]
	}
	return n.codecs[best]
}

// Response is a fully negotiated and encoded problem response, ready to be
// handed to any HTTP framework.
type Response struct {
	// Status is the HTTP status code to respond with.
	Status int

	// ContentType is the negotiated media type for the Content-Type header.
	ContentType string

	// Body is the encoded problem document.
	Body []byte
}

// Respond negotiates a codec for the Accept header and encodes p with it.
// A problem without a status responds with 500. The error is the codec's
// encode error; for the built-in codecs see [JSONCodec.Encode] and
// [XMLCodec.Encode].
//
// Example:
//
//	resp, err := problem.DefaultNegotiator().Respond(p, r.Header.Get("Accept"))
//	if err != nil {
//		// handle encode failure
//	}
//	w.Header().Set("Content-Type", resp.ContentType)
//	w.WriteHeader(resp.Status)
//	w.Write(resp.Body)
func (n *Negotiator) Respond(p Problem, accept string) (Response, error) {
	codec := n.Negotiate(accept)
	body, err := codec.Encode(p)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Status:      p.HTTPStatus(),
		ContentType: codec.MediaType(),
		Body:        body,
	}, nil
}
