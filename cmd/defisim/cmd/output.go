package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/onesgame/onesdefi/x/defi/auditsink"
)

// writeOutput renders v as json or yaml. Both follow the json field names.
func writeOutput(w io.Writer, format string, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if format == "json" {
		_, err = fmt.Fprintln(w, string(bz))
		return err
	}

	// json is a subset of yaml
	var doc yaml.Node
	if err := yaml.Unmarshal(bz, &doc); err != nil {
		return err
	}
	clearStyle(&doc)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// clearStyle drops the flow style decoding json leaves on every node.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// openSinks connects the audit sinks the configuration asks for. The caller
// closes them.
func openSinks(ctx context.Context, cfg Config) ([]auditsink.Sink, error) {
	var sinks []auditsink.Sink
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	if cfg.NATSURL != "" {
		ns, err := auditsink.NewNATSSink(auditsink.NATSConfig{
			URL:           cfg.NATSURL,
			SubjectPrefix: cfg.NATSSubject,
			Name:          "defisim",
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ns)
	}
	if cfg.PGDSN != "" {
		ps, err := auditsink.NewPostgresSink(ctx, cfg.PGDSN)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("postgres sink: %w", err)
		}
		sinks = append(sinks, ps)
	}
	return sinks, nil
}
