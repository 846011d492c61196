package illustrating

import (
	"encoding/json"
	"os"

	"eduassist/internal/rendering"
	"eduassist/internal/services"
)

func readDeckDocument(path string) (*rendering.DeckDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "illustrating", "read deck",
			"Staged deck file is missing; rerun rendering", err)
	}
	var doc rendering.DeckDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "illustrating", "decode deck",
			"Staged deck file is not valid JSON; rerun rendering", err)
	}
	return &doc, nil
}

func writeDeckDocument(path string, doc *rendering.DeckDocument) error {
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "illustrating", "encode deck",
			"Failed to encode illustrated deck", err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "illustrating", "write deck",
			"Failed to write illustrated deck", err)
	}
	return nil
}
