package state

import (
	"fmt"
	"strings"
)

// TaskType is a kind of work branch the task wizard can start.
type TaskType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GetTaskTypes returns the supported task branch prefixes, in display order.
func GetTaskTypes() []TaskType {
	return []TaskType{
		{
			ID:          "feature",
			Name:        "Feature",
			Description: "New functionality, branched from the current head and merged back when done.",
		},
		{
			ID:          "bugfix",
			Name:        "Bugfix",
			Description: "A fix for a defect found during development.",
		},
		{
			ID:          "hotfix",
			Name:        "Hotfix",
			Description: "An urgent patch for a released version.",
		},
		{
			ID:          "release",
			Name:        "Release",
			Description: "Stabilization of an upcoming release.",
		},
	}
}

// TaskBranchName builds "<type>/<name>" with the name lowercased and spaces
// replaced by dashes.
func TaskBranchName(taskType, name string) (string, error) {
	valid := false
	for _, t := range GetTaskTypes() {
		if t.ID == taskType {
			valid = true
			break
		}
	}
	if !valid {
		return "", fmt.Errorf("unknown task type '%s' (want feature, bugfix, hotfix or release)", taskType)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("task name required")
	}
	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	return taskType + "/" + slug, nil
}
