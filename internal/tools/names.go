package tools

// Namespace is the public prefix every advertised tool name carries.
const Namespace = "studio."

// Public tool names. Clients call these via tools/call; batch steps
// reference them by the same names.
const (
	ToolHealth               = "studio.health"
	ToolVersion              = "studio.version"
	ToolSceneListObjects     = "studio.scene.list_objects"
	ToolSceneGetActiveObject = "studio.scene.get_active_object"
	ToolSceneSnapshot        = "studio.scene.snapshot"
	ToolSceneSnapshotChunk   = "studio.scene.snapshot_chunk"
	ToolSceneCreateObject    = "studio.scene.create_object"
	ToolSceneExport          = "studio.scene.export"
	ToolObjectMove           = "studio.object.move"
	ToolObjectExists         = "studio.object.exists"
	ToolObjectGetLocation    = "studio.object.get_location"
	ToolObjectGetTransform   = "studio.object.get_transform"
	ToolObjectSetTransform   = "studio.object.set_transform"
	ToolObjectRename         = "studio.object.rename"
	ToolObjectDelete         = "studio.object.delete"
	ToolMeshCreateCube       = "studio.mesh.create_cube"
	ToolMeshCreateUVSphere   = "studio.mesh.create_uv_sphere"
	ToolMeshCreateCylinder   = "studio.mesh.create_cylinder"
	ToolOpsStatus            = "studio.ops.status"
	ToolOpsCancel            = "studio.ops.cancel"
	ToolBatch                = "studio.batch"
)
