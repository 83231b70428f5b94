// cmd/tools/route-linter/main.go
//
// Validates a route table file before deployment: schema shape plus the
// cross-reference rules the runtime only discovers lazily.
package main

import (
	"flag"
	"fmt"
	"os"

	"agent-router/internal/models"
	"agent-router/pkg/registry"
)

func main() {
	path := flag.String("path", "configs/routes.yaml", "Path to route table file")
	resourcesDir := flag.String("resources", "", "Optional base directory for context-resource existence checks")
	flag.Parse()

	table, err := registry.LoadTable(*path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	problems := lint(table, *resourcesDir)
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Printf("Problem: %s\n", p)
		}
		os.Exit(1)
	}

	fmt.Printf("OK: %s (%s)\n", *path, registry.Describe(table))
}

func lint(table *models.RouteTable, resourcesDir string) []string {
	var problems []string

	// Every keyword intent should be routable.
	for intent := range table.Keywords {
		if _, ok := table.Routes[intent]; !ok {
			problems = append(problems, fmt.Sprintf("keywords configured for intent %q but no route exists", intent))
		}
	}

	// Trigger names must point at non-empty workflow chains.
	for _, trigger := range table.Triggers {
		chain, ok := table.Workflows[trigger.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("trigger %q names an undefined workflow", trigger.Name))
			continue
		}
		if len(chain) == 0 {
			problems = append(problems, fmt.Sprintf("workflow %q has an empty handler chain", trigger.Name))
		}
	}

	// Bulk detection without a bulk target silently downgrades at runtime.
	if len(table.BulkKeywords) > 0 {
		if table.BulkName == "" {
			problems = append(problems, "bulk_keywords configured but bulk_name is empty")
		} else if _, ok := table.Routes[table.BulkName]; !ok {
			problems = append(problems, fmt.Sprintf("bulk_name %q has no route", table.BulkName))
		}
	}

	// Skip rules should reference configured intents and resources.
	for _, rule := range table.Skips {
		route, ok := table.Routes[rule.Intent]
		if !ok {
			if _, isWorkflow := table.Workflows[rule.Intent]; !isWorkflow {
				problems = append(problems, fmt.Sprintf("skip rule references unknown intent %q", rule.Intent))
			}
			continue
		}
		if !contains(route.Context, rule.Resource) {
			problems = append(problems, fmt.Sprintf("skip rule for intent %q references resource %q not in its context list", rule.Intent, rule.Resource))
		}
	}

	if resourcesDir != "" {
		problems = append(problems, lintResources(table, resourcesDir)...)
	}

	return problems
}

func lintResources(table *models.RouteTable, baseDir string) []string {
	var problems []string
	seen := map[string]bool{}

	for intent, route := range table.Routes {
		for _, resource := range route.Context {
			if seen[resource] {
				continue
			}
			seen[resource] = true
			if _, err := os.Stat(fmt.Sprintf("%s/%s", baseDir, resource)); err != nil {
				problems = append(problems, fmt.Sprintf("context resource %q (intent %q) not found under %s", resource, intent, baseDir))
			}
		}
	}
	return problems
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
