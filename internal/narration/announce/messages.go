package announce

import "fmt"

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// ResultsFound reports a result count, e.g. "5 results found".
func ResultsFound(n int) string {
	return plural(n, "result") + " found"
}

// FiltersApplied reports a filter change and the remaining row count.
func FiltersApplied(n int) string {
	return fmt.Sprintf("Filters applied. Showing %s.", plural(n, "result"))
}

// FiltersReset reports that all filters were cleared.
func FiltersReset() string {
	return "Filters reset. Showing all users."
}

func UserAdded(name string) string {
	return name + " has been added successfully."
}

func UserDeleted(name string) string {
	return name + " has been deleted."
}

func EditOpened(name string) string {
	return "Opening edit form for " + name
}

// PageChanged reports pagination, e.g. "Navigated to page 2 of 5".
func PageChanged(page, total int) string {
	return fmt.Sprintf("Navigated to page %d of %d", page, total)
}

func SettingsSaved() string {
	return "Settings saved successfully"
}

// SaveFailed is written to the alert region.
func SaveFailed(reason string) string {
	if reason == "" {
		return "Settings could not be saved"
	}
	return "Settings could not be saved: " + reason
}
