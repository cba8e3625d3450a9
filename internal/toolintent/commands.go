package toolintent

// #region imports
import (
	"regexp"

	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
)

// #endregion

// #region command-table

// Command describes one executable tool operation. Risk feeds the action
// filter; Reversible commands carry an inverse builder for the undo journal.
type Command struct {
	Name         string
	RequiredPerm string
	Risk         float32
	Reversible   bool

	pattern *regexp.Regexp
	// groups names each capture group; matched values land in Args keyed by
	// these names.
	groups []string
	// inverse builds the rollback command from the resolved args. Nil for
	// irreversible commands.
	inverse func(args map[string]any) (string, map[string]any)
}

// Known command names.
const (
	CmdBanMember    = "ban_member"
	CmdTimeout      = "timeout_member"
	CmdQuarantine   = "quarantine_member"
	CmdCreateChan   = "create_channel"
	CmdRenameChan   = "rename_channel"
	CmdMoveChan     = "move_channel_to_category"
	CmdLockCategory = "lock_category"
	CmdAssignRole   = "assign_role"
	CmdDeleteRole   = "delete_role"
	CmdSetSlowmode  = "set_slowmode"
	CmdPurge        = "purge_messages"
	CmdServerStats  = "server_stats_report"
	CmdUndoLast     = "undo_last_action"
	CmdStatus       = "status_report"

	// Rollback-only commands; never parsed from requests.
	cmdUnban         = "unban_member"
	cmdClearTimeout  = "clear_timeout"
	cmdUnquarantine  = "unquarantine_member"
	cmdDeleteChannel = "delete_channel"
	cmdUnlockCat     = "unlock_category"
	cmdRemoveRole    = "remove_role"
)

// commands is matched in order; the first pattern hit wins. More specific
// phrasings sit before looser ones.
var commands = []Command{
	{
		Name: CmdBanMember, RequiredPerm: stimulus.PermAdministrator, Risk: 0.9, Reversible: true,
		pattern: regexp.MustCompile(`(?i)\bban\s+@?([\w.-]+)`),
		groups:  []string{"member"},
		inverse: func(args map[string]any) (string, map[string]any) {
			return cmdUnban, map[string]any{"member": args["member"]}
		},
	},
	{
		Name: CmdTimeout, RequiredPerm: stimulus.PermModerateMembers, Risk: 0.6, Reversible: true,
		pattern: regexp.MustCompile(`(?i)\btimeout\s+@?([\w.-]+)(?:\s+(?:for\s+)?(\d+[smhd]?))?`),
		groups:  []string{"member", "duration"},
		inverse: func(args map[string]any) (string, map[string]any) {
			return cmdClearTimeout, map[string]any{"member": args["member"]}
		},
	},
	{
		Name: CmdQuarantine, RequiredPerm: stimulus.PermModerateMembers, Risk: 0.7, Reversible: true,
		pattern: regexp.MustCompile(`(?i)\bquarantine\s+@?([\w.-]+)`),
		groups:  []string{"member"},
		inverse: func(args map[string]any) (string, map[string]any) {
			return cmdUnquarantine, map[string]any{"member": args["member"]}
		},
	},
	{
		Name: CmdRenameChan, RequiredPerm: stimulus.PermManageChannels, Risk: 0.3, Reversible: true,
		pattern: regexp.MustCompile(`(?i)\brename\s+(?:channel\s+)?#?([\w-]+)\s+to\s+#?([\w-]+)`),
		groups:  []string{"channel", "name"},
		inverse: func(args map[string]any) (string, map[string]any) {
			return CmdRenameChan, map[string]any{"channel": args["name"], "name": args["channel"]}
		},
	},
	{
		Name: CmdCreateChan, RequiredPerm: stimulus.PermManageChannels, Risk: 0.4, Reversible: true,
		pattern: regexp.MustCompile(`(?i)\bcreate\s+(?:a\s+)?channel\s+(?:called\s+|named\s+)?#?([\w-]+)`),
		groups:  []string{"name"},
		inverse: func(args map[string]any) (string, map[string]any) {
			return cmdDeleteChannel, map[string]any{"channel": args["name"]}
		},
	},
	{
		Name: CmdMoveChan, RequiredPerm: stimulus.PermManageChannels, Risk: 0.4, Reversible: false,
		// Prior category is unknown at parse time, so no inverse.
		pattern: regexp.MustCompile(`(?i)\bmove\s+#?([\w-]+)\s+to\s+(?:category\s+)?([\w -]+)`),
		groups:  []string{"channel", "category"},
	},
	{
		Name: CmdLockCategory, RequiredPerm: stimulus.PermManageChannels, Risk: 0.6, Reversible: true,
		pattern: regexp.MustCompile(`(?i)\block\s+(?:category\s+)?([\w -]+)`),
		groups:  []string{"category"},
		inverse: func(args map[string]any) (string, map[string]any) {
			return cmdUnlockCat, map[string]any{"category": args["category"]}
		},
	},
	{
		Name: CmdAssignRole, RequiredPerm: stimulus.PermManageRoles, Risk: 0.5, Reversible: true,
		pattern: regexp.MustCompile(`(?i)\b(?:assign|give)\s+(?:role\s+)?([\w-]+)\s+to\s+@?([\w.-]+)`),
		groups:  []string{"role", "member"},
		inverse: func(args map[string]any) (string, map[string]any) {
			return cmdRemoveRole, map[string]any{"role": args["role"], "member": args["member"]}
		},
	},
	{
		Name: CmdDeleteRole, RequiredPerm: stimulus.PermAdministrator, Risk: 0.8, Reversible: false,
		pattern: regexp.MustCompile(`(?i)\bdelete\s+role\s+([\w-]+)`),
		groups:  []string{"role"},
	},
	{
		Name: CmdSetSlowmode, RequiredPerm: stimulus.PermManageChannels, Risk: 0.3, Reversible: true,
		pattern: regexp.MustCompile(`(?i)\bslowmode\s+(?:#?([\w-]+)\s+)?(?:to\s+)?(\d+)\s*s?`),
		groups:  []string{"channel", "seconds"},
		inverse: func(args map[string]any) (string, map[string]any) {
			return CmdSetSlowmode, map[string]any{"channel": args["channel"], "seconds": "0"}
		},
	},
	{
		Name: CmdPurge, RequiredPerm: stimulus.PermManageMessages, Risk: 0.95, Reversible: false,
		pattern: regexp.MustCompile(`(?i)\bpurge\s+(\d+)`),
		groups:  []string{"count"},
	},
	{
		Name: CmdServerStats, RequiredPerm: "", Risk: 0.05, Reversible: false,
		pattern: regexp.MustCompile(`(?i)\b(?:server\s+)?stats\b`),
	},
	{
		Name: CmdUndoLast, RequiredPerm: stimulus.PermModerateMembers, Risk: 0.2, Reversible: false,
		pattern: regexp.MustCompile(`(?i)\bundo\b`),
	},
	{
		Name: CmdStatus, RequiredPerm: "", Risk: 0, Reversible: false,
		pattern: regexp.MustCompile(`(?i)\bstatus\b`),
	},
}

// Lookup returns the command with the given name.
func Lookup(name string) (Command, bool) {
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// #endregion command-table
