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

// Media types registered for problem details documents.
const (
	// MediaTypeJSON is the media type of JSON problem documents.
	MediaTypeJSON = "application/problem+json"

	// MediaTypeXML is the media type of XML problem documents.
	MediaTypeXML = "application/problem+xml"
)

// Codec is a bidirectional mapping between a [Problem] and one wire format.
//
// The two built-in implementations are [JSONCodec] and [XMLCodec]. A custom
// codec can be registered with a [Negotiator] alongside or instead of the
// built-in ones; the negotiator treats the set it was constructed with as
// the complete set of available representations.
//
// Codecs are stateless: encode and decode are pure functions over their
// input and are safe to call concurrently.
type Codec interface {
	// MediaType returns the media type this codec produces and consumes,
	// used both for content negotiation and for the Content-Type header.
	MediaType() string

	// Encode serializes a Problem. Encoding is total over Problems built
	// through this package; see the codec implementations for the few
	// format-specific exceptions.
	Encode(p Problem) ([]byte, error)

	// Decode parses a problem document. Structural violations return
	// [ErrMalformedDocument]; fixed members of the wrong type return
	// [ErrTypeMismatch], both wrapped in a [DecodeError].
	Decode(data []byte) (Problem, error)
}
