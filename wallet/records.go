// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is a resource record as edited in the UI: a type and a single
// string value.  Glue and synth records carry "ns address" in the value.
type Record struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// wire shapes of the daemon's resource records.
type nsRecord struct {
	Type string `json:"type"`
	NS   string `json:"ns"`
}

type glueRecord struct {
	Type    string `json:"type"`
	NS      string `json:"ns"`
	Address string `json:"address"`
}

type txtRecord struct {
	Type string   `json:"type"`
	TXT  []string `json:"txt"`
}

// FoldRecords converts UI form records into the daemon's resource
// record shape.  All TXT values fold into a single TXT record, NS
// records rename their value field, and glue/synth records split their
// value into name server and address.  Unrecognized types pass through
// unchanged.
func FoldRecords(records []Record) (json.RawMessage, error) {
	out := make([]interface{}, 0, len(records))
	var txt []string

	for _, rec := range records {
		switch rec.Type {
		case "TXT":
			txt = append(txt, rec.Value)

		case "NS":
			out = append(out, nsRecord{Type: "NS", NS: rec.Value})

		case "GLUE4", "GLUE6", "SYNTH4", "SYNTH6":
			fields := strings.Fields(rec.Value)
			if len(fields) != 2 {
				return nil, fmt.Errorf("%s record needs "+
					"\"ns address\", got %q", rec.Type,
					rec.Value)
			}
			out = append(out, glueRecord{
				Type:    rec.Type,
				NS:      fields[0],
				Address: fields[1],
			})

		default:
			out = append(out, rec)
		}
	}

	if len(txt) > 0 {
		out = append(out, txtRecord{Type: "TXT", TXT: txt})
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	return payload, nil
}
