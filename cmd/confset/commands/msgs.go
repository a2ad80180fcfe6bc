package commands

// Short messages (one-liners)
const (
	MsgRootShort     = "Manage named config sets via a symlink farm"
	MsgActivateShort = "Make a config set live"
	MsgAddShort      = "Bring live paths under management of the active set"
	MsgRemoveShort   = "Take paths out of the active set"
	MsgDiffShort     = "Compare two config sets"
	MsgCreateShort   = "Create a new config set"
	MsgDeleteShort   = "Delete a config set"
	MsgRenameShort   = "Rename a config set"
	MsgListShort     = "List all config sets"
	MsgInfoShort     = "Show details of a config set"
	MsgPullShort     = "Fetch a remote bundle and install it as a config set"
	MsgExportShort   = "Pack a config set into a tar.gz archive"
	MsgImportShort   = "Install a config set from an exported archive"
	MsgVerifyShort   = "Reconcile a set's manifest, snapshot and live links"
	MsgInitShort     = "Write a starter .confset.toml to the repository"
	MsgVersionShort  = "Print version information"

	MsgExported = "exported %s to %s (%s)\n"
	MsgImported = "imported %s from %s\n"
	MsgCreated  = "created config set %q\n"
	MsgDeleted  = "deleted config set %q\n"
	MsgRenamed  = "renamed config set %q to %q\n"
	MsgPulled   = "pulled %s into config set %q\n"
	MsgInitDone = "wrote %s\n"
)
