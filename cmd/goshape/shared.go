package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	goshape "github.com/reoring/goshape"
)

func yamlFile(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func loadSchema(file string) (*goshape.Schema, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if yamlFile(file) {
		return goshape.ParseSchemaYAML(data)
	}
	return goshape.ParseSchemaJSON(data)
}

// loadDocument reads a JSON or YAML file into plain maps and slices.
func loadDocument(file string) (map[string]any, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if yamlFile(file) {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return doc, nil
}

func loadComponents(file string) (*goshape.Registry, error) {
	doc, err := loadDocument(file)
	if err != nil {
		return nil, err
	}
	reg, err := goshape.RegistryFromComponents(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return reg, nil
}
