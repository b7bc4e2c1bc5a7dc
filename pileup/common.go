// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pileup

import (
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/smrna/interval"
)

// Common pileup components.

// PosType is the integer type used to represent genomic positions.
type PosType = interval.PosType

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = interval.PosTypeMax

// StrandType describes which strand a read is aligned to.
type StrandType int

const (
	// StrandNone means the strand is unknown or was not one of '+'/'-'.
	StrandNone StrandType = iota
	// StrandFwd is the '+' strand.
	StrandFwd
	// StrandRev is the '-' strand.
	StrandRev
)

// NStrand is the number of real strands.  Per-strand arrays are indexed by
// StrandIndex(); StrandNone has no slot.
const NStrand = 2

// StrandTypeToASCIITable is the StrandType -> ASCII mapping.
var StrandTypeToASCIITable = [...]byte{'.', '+', '-'}

// String implements fmt.Stringer.
func (s StrandType) String() string {
	if s < StrandNone || s > StrandRev {
		return "."
	}
	return string(StrandTypeToASCIITable[s])
}

// StrandIndex returns 0 for StrandFwd and 1 for StrandRev.  It must not be
// called with StrandNone.
func (s StrandType) StrandIndex() int {
	return int(s) - 1
}

// GetStrand returns the strand a single (unpaired) alignment is placed on.
// Small-RNA libraries are single-end, so only the Reverse bit matters.
func GetStrand(samr *sam.Record) StrandType {
	if samr.Flags&sam.Reverse != 0 {
		return StrandRev
	}
	return StrandFwd
}

// ParseStrand maps "+" and "-" (BED or histogram column) to a StrandType.
// Anything else is StrandNone.
func ParseStrand(b []byte) StrandType {
	if len(b) != 1 {
		return StrandNone
	}
	switch b[0] {
	case '+':
		return StrandFwd
	case '-':
		return StrandRev
	}
	return StrandNone
}
