package search

// reconcile drops every selected make that owns one of the selected models,
// so choosing specific models of a make restricts that make to those models.
// Makes left empty become absent. Nothing happens when no models were
// submitted.
func reconcile(f *Filter, vocab Vocabulary) {
	if f.Models == nil || f.Makes == nil {
		return
	}

	kept := make([]string, 0, len(f.Makes))
	for _, mk := range f.Makes {
		if !ownsAny(vocab, mk, f.Models) {
			kept = append(kept, mk)
		}
	}

	if len(kept) == 0 {
		f.Makes = nil
		return
	}
	f.Makes = kept
}

func ownsAny(vocab Vocabulary, makeName string, models []string) bool {
	for _, m := range models {
		if vocab.MakeOwnsModel(makeName, m) {
			return true
		}
	}
	return false
}
