package driver

const (
	// UpsertNodesQuery merges a batch of dependency nodes for one project.
	UpsertNodesQuery = `
		UNWIND $nodes AS node
		MERGE (n:Dependency {id: node.id, project_id: $project_id})
		SET n.display_name = node.display_name,
			n.kind = node.kind
		RETURN count(n) AS merged
	`

	// UpsertEdgesQuery merges a batch of dependency edges. Relation is a
	// property rather than a label so one query covers every relation kind.
	UpsertEdgesQuery = `
		UNWIND $edges AS edge
		MATCH (a:Dependency {id: edge.from_id, project_id: $project_id})
		MATCH (b:Dependency {id: edge.to_id, project_id: $project_id})
		MERGE (a)-[r:DEPENDS {relation: edge.relation}]->(b)
		RETURN count(r) AS merged
	`

	// RemoveProjectQuery detaches and deletes everything mirrored for a
	// project, used when the project is removed from the store.
	RemoveProjectQuery = `
		MATCH (n:Dependency {project_id: $project_id})
		DETACH DELETE n
	`
)
