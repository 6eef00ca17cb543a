package batch

import (
	"fmt"

	"github.com/aretw0/selector/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DecodeItems converts loosely typed input (JSON bodies, YAML files, tool arguments)
// into batch items. A missing "repeat" field means 1; an explicit value is kept as is
// so that RepeatCount can reject it.
func DecodeItems(raw []map[string]any) ([]domain.BatchItem, error) {
	items := make([]domain.BatchItem, 0, len(raw))
	for i, fields := range raw {
		item := domain.BatchItem{Repeat: 1}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &item,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(fields); err != nil {
			return nil, fmt.Errorf("invalid batch item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}
