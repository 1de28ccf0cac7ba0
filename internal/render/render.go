package render

// DocResult is one rendered document's final output, ready to be written
// to "<output>/<Filename>".
type DocResult struct {
	ID       string
	Filename string
	Title    string
	Body     string
	Status   DocStatus
}

// RenderAll renders every DocumentSpec in selected against ctx. 00-INDEX is
// always computed last regardless of its position in selected, since it
// aggregates every other document's status (spec §4.14).
func RenderAll(ctx RenderContext, selected []DocumentSpec) []DocResult {
	results := make([]DocResult, 0, len(selected))
	var indexSpecPresent bool

	for _, d := range selected {
		if d.ID == indexSpec.ID {
			indexSpecPresent = true
			continue
		}
		body, status := d.Render(ctx)
		results = append(results, DocResult{
			ID: d.ID, Filename: d.Filename, Title: d.Title,
			Body: body, Status: status,
		})
	}

	if indexSpecPresent {
		body := renderIndexBody(ctx, results)
		results = append(results, DocResult{
			ID: indexSpec.ID, Filename: indexSpec.Filename, Title: indexSpec.Title,
			Body: body, Status: StatusComplete,
		})
	}

	return results
}
