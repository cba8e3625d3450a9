package stimulus

// #region imports
import (
	"testing"
)

// #endregion

// #region permission-tests

func TestHasPermissionAdministratorImpliesAll(t *testing.T) {
	stim := New(TypeMessage, "test", 0.5)
	stim.AuthorPermissions = []string{PermAdministrator}

	if !stim.HasPermission(PermManageChannels) {
		t.Fatal("administrator must imply every flag")
	}
}

func TestHasPermissionWhitelistBypass(t *testing.T) {
	stim := New(TypeMessage, "test", 0.5)
	stim.AuthorWhitelisted = true

	if !stim.HasPermission(PermAdministrator) {
		t.Fatal("whitelist must bypass permission lookup")
	}
}

func TestHasPermissionExactFlag(t *testing.T) {
	stim := New(TypeMessage, "test", 0.5)
	stim.AuthorPermissions = []string{PermModerateMembers}

	if !stim.HasPermission(PermModerateMembers) {
		t.Fatal("exact flag must match")
	}
	if stim.HasPermission(PermManageRoles) {
		t.Fatal("unrelated flag must not match")
	}
}

func TestDirectedFromMentionOrRouting(t *testing.T) {
	stim := New(TypeMessage, "test", 0.5)
	if stim.Directed() {
		t.Fatal("ambient default must not be directed")
	}
	stim.MentionsBot = true
	if !stim.Directed() {
		t.Fatal("mention must direct")
	}
	stim.MentionsBot = false
	stim.Routing = RoutingDirected
	if !stim.Directed() {
		t.Fatal("directed routing must direct")
	}
}

// #endregion permission-tests

// #region salience-tests

func TestEstimateSalienceEmptyContent(t *testing.T) {
	if s := EstimateSalience("", false); s != 0 {
		t.Fatalf("expected zero salience, got %.3f", s)
	}
}

func TestEstimateSalienceDirectedOutranksAmbient(t *testing.T) {
	content := "could someone explain how the deployment pipeline works?"
	ambient := EstimateSalience(content, false)
	directed := EstimateSalience(content, true)
	if directed <= ambient {
		t.Fatalf("directed %.3f must exceed ambient %.3f", directed, ambient)
	}
}

func TestEstimateSalienceUrgencyBump(t *testing.T) {
	calm := EstimateSalience("the weather is nice over here today honestly", false)
	urgent := EstimateSalience("the server is broken and everything is down", false)
	if urgent <= calm {
		t.Fatalf("urgent %.3f must exceed calm %.3f", urgent, calm)
	}
}

func TestEstimateSalienceStaysBounded(t *testing.T) {
	s := EstimateSalience("HELP URGENT PLEASE the server is broken down now? why is everything on fire", true)
	if s < 0 || s > 1 {
		t.Fatalf("salience out of bounds: %.3f", s)
	}
}

// #endregion salience-tests
