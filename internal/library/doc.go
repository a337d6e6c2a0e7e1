// Package library loads reusable pipeline definitions from YAML files on
// disk and turns them into ready-to-run pipeline.Engine values. A library
// entry only describes what a stage.Table/endpoint.Input/endpoint.Output
// builder call could describe directly — it cannot reference an in-process
// Function stage, since there is no way to name Go code from YAML.
package library
