package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/vendor-bundler/internal/builder"
	"github.com/shinji-kodama/vendor-bundler/internal/model"
)

// taskInfo is the JSON representation of a leaf task in `list --json`.
type taskInfo struct {
	Name    string         `json:"name"`
	Kind    model.TaskKind `json:"kind"`
	Sources []string       `json:"sources"`
	Outputs []string       `json:"outputs"`
}

// groupInfo is the JSON representation of a group in `list --json`.
type groupInfo struct {
	Name    string   `json:"name"`
	Mode    string   `json:"mode"`
	Members []string `json:"members"`
}

// listOutput is the JSON structure for `list --json`.
type listOutput struct {
	Root     string      `json:"root"`
	Manifest string      `json:"manifest"`
	Default  string      `json:"default"`
	Tasks    []taskInfo  `json:"tasks"`
	Groups   []groupInfo `json:"groups"`
}

// NewListCommand creates the "list" subcommand.
//
// Usage: vendor-bundler list [--json]
//
// Lists every task and group the manifest defines. Paths are shown
// relative to the project root.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks and groups",
		Long: `List shows every task and group defined by the manifest,
with task sources and outputs and group members.

Examples:
  vendor-bundler list
  vendor-bundler list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, source, err := loadBuilder()
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), b, source)
		},
	}
}

// collectList converts the builder's tasks and graph into list entries.
// Tasks keep manifest order; groups keep graph registration order.
func collectList(b *builder.Builder, source string) listOutput {
	out := listOutput{
		Root:     b.Root(),
		Manifest: source,
		Default:  b.DefaultTarget(),
		Tasks:    []taskInfo{},
		Groups:   []groupInfo{},
	}

	for _, task := range b.Tasks() {
		info := taskInfo{Name: task.Name, Kind: task.Kind}
		for _, src := range task.Sources {
			info.Sources = append(info.Sources, DisplayPath(b.Root(), src))
		}
		for _, dest := range task.OutputPaths() {
			info.Outputs = append(info.Outputs, DisplayPath(b.Root(), dest))
		}
		out.Tasks = append(out.Tasks, info)
	}

	for _, name := range b.Graph().Names() {
		kind, members, ok := b.Graph().Describe(name)
		if !ok || kind == "task" {
			continue
		}
		out.Groups = append(out.Groups, groupInfo{Name: name, Mode: kind, Members: members})
	}
	return out
}

// printList writes the list in JSON or text format.
func printList(w io.Writer, b *builder.Builder, source string) error {
	out := collectList(b, source)

	if IsJSONOutput() {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	fmt.Fprintf(w, "Manifest: %s\n", out.Manifest)
	fmt.Fprintf(w, "Root:     %s\n\n", out.Root)

	fmt.Fprintf(w, "%-14s %-7s %-8s %s\n", "TASK", "KIND", "SOURCES", "OUTPUT")
	for _, task := range out.Tasks {
		fmt.Fprintf(w, "%-14s %-7s %-8d %s\n",
			markDefault(task.Name, out.Default),
			task.Kind,
			len(task.Sources),
			FormatOutputs(task.Kind, task.Outputs),
		)
	}

	if len(out.Groups) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-14s %-9s %s\n", "GROUP", "MODE", "MEMBERS")
		for _, group := range out.Groups {
			fmt.Fprintf(w, "%-14s %-9s %s\n", markDefault(group.Name, out.Default), group.Mode, strings.Join(group.Members, ", "))
		}
	}
	return nil
}

// markDefault appends " *" to the default target's name.
func markDefault(name, def string) string {
	if name == def {
		return name + " *"
	}
	return name
}

// FormatOutputs summarizes task outputs for the text table: the single
// bundle path, or the shared destination directory of copied files.
func FormatOutputs(kind model.TaskKind, outputs []string) string {
	if len(outputs) == 0 {
		return "-"
	}
	if kind == model.KindBundle || len(outputs) == 1 {
		return strings.Join(outputs, ", ")
	}

	dir := outputs[0][:strings.LastIndexAny(outputs[0], `/\`)+1]
	for _, o := range outputs[1:] {
		if !strings.HasPrefix(o, dir) {
			return strings.Join(outputs, ", ")
		}
	}
	if dir == "" {
		dir = "./"
	}
	return fmt.Sprintf("%s (%d files)", dir, len(outputs))
}
