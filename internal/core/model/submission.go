package model

import "time"

// GraphSubmission is a raw dependency graph as delivered by the IDE plugin.
type GraphSubmission struct {
	ProjectID  string           `json:"project_id"`
	RepoURL    string           `json:"repo_url,omitempty"`
	CommitHash string           `json:"commit_hash,omitempty"`
	Author     string           `json:"author,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	Nodes      []DependencyNode `json:"nodes"`
	Edges      []DependencyEdge `json:"edges"`
}

// ChangeSet is the diff-capture payload submitted per merge request.
// ChangedEntityIDs may be empty, in which case candidates are recovered
// from DiffText.
type ChangeSet struct {
	ProjectID        string    `json:"project_id"`
	MRID             string    `json:"mr_id"`
	Author           string    `json:"author,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	DiffText         string    `json:"diff_text,omitempty"`
	ChangedEntityIDs []string  `json:"changed_entity_ids"`
}

// IngestSummary reports what a single ingestion pass did.
type IngestSummary struct {
	ProjectID          string `json:"project_id"`
	NodesAdded         int    `json:"nodes_added"`
	NodesUpdated       int    `json:"nodes_updated"`
	EdgesAdded         int    `json:"edges_added"`
	EmbeddingsComputed int    `json:"embeddings_computed"`
	EmbeddingsFailed   int    `json:"embeddings_failed"`
	Generation         uint64 `json:"generation"`
}
