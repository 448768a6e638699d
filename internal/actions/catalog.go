package actions

import (
	"context"

	"auri/internal/config"
	"auri/internal/repos"
)

// Identifiers persisted in the batch and scheduler documents.
const (
	IDRemoveLock         = "remove_lock"
	IDDNSReset           = "dns_reset"
	IDMirrorOptimizer    = "mirror_optimizer"
	IDUpdateSystem       = "update_system"
	IDSnapshotPreUpdate  = "snapshot_pre_update"
	IDSnapshotPostUpdate = "snapshot_post_update"
	IDFullFix            = "full_fix"
	IDReinstallAll       = "reinstall_all"
	IDRemoveOrphans      = "remove_orphans"
	IDCleanCache         = "clean_cache"
	IDSoundFix           = "sound_fix"
	IDResetSnapper       = "reset_snapper"
	IDKernelManager      = "kernel_manager"
	IDVirtualization     = "virtualization"
	IDReposAndKeyrings   = "manage_repos_and_keyrings"
	IDWineX86            = "wine_x86"
	IDWineX64            = "wine_x64"
	IDWineWork           = "wine_work"
	IDWineBoth           = "wine_both"
	IDWineTest           = "wine_test"
)

const pacmanUpgrade = "pacman -Syu --noconfirm --needed --overwrite '*'"

const virtualizationInstall = "pacman -S --noconfirm qemu virt-manager virt-viewer dnsmasq vde2 bridge-utils openbsd-netcat ebtables iptables libguestfs fuse2 gtkmm linux-headers pcsclite libcanberra"

// MultilibHint is shown when a wine install fails.
var MultilibHint = []string{
	"INSTALLATION FAILED!",
	"It might be because [multilib] is not enabled.",
	"",
	"TO CHECK/ENABLE MULTILIB:",
	"1. Run: sudo nano /etc/pacman.conf",
	"2. Find the [multilib] section.",
	"3. Uncomment (remove #) [multilib] and the Include line.",
	"4. Save & Exit: Press Ctrl+X, then Y, then Enter.",
	"5. Run: sudo pacman -Syu",
}

// Default builds the canonical catalog with file locations taken from p.
func Default(p config.Paths) *Registry {
	return MustNew(
		Entry{ID: IDRemoveLock, Label: "Remove pacman lock", Behavior: Command("rm -f " + p.PacmanLock)},
		Entry{ID: IDDNSReset, Label: "DNS Reset", Behavior: Command(
			"rm -f /etc/resolv.conf",
			"ln -sf /run/systemd/resolve/stub-resolv.conf /etc/resolv.conf",
			"systemctl restart systemd-resolved",
			"systemctl restart NetworkManager",
			"resolvectl flush-caches || true",
			"resolvectl status || true",
		)},
		Entry{ID: IDMirrorOptimizer, Label: "Optimize Mirrors", Behavior: Command(
			"reflector --latest 20 --protocol https --sort rate --save " + p.MirrorList,
		)},
		Entry{ID: IDUpdateSystem, Label: "Update System", Behavior: Command(pacmanUpgrade)},
		Entry{ID: IDSnapshotPreUpdate, Label: "Snapshot pre-update", Behavior: snapshot("pre-update")},
		Entry{ID: IDSnapshotPostUpdate, Label: "Snapshot post-update", Behavior: snapshot("post-update")},
		Entry{ID: IDFullFix, Label: "Full System Fix", Behavior: Command(pacmanUpgrade)},
		Entry{
			ID: IDReinstallAll, Label: "Reinstall ALL Packages", Destructive: true,
			Warning:  "This will reinstall every native package.",
			Behavior: Command("pacman -Qnq | pacman -S --noconfirm --needed -"),
		},
		Entry{ID: IDRemoveOrphans, Label: "Remove Orphan Packages", Behavior: Command("pacman -Qdtq | pacman -Rns --noconfirm -")},
		Entry{ID: IDCleanCache, Label: "Clean Pacman Cache", Behavior: Command("pacman -Sc --noconfirm")},
		Entry{ID: IDSoundFix, Label: "Sound Fix", Behavior: Command(
			"pacman -S --noconfirm pipewire pipewire-alsa pipewire-pulse wireplumber",
			"systemctl --user enable --now pipewire pipewire-pulse wireplumber",
		)},
		Entry{
			ID: IDResetSnapper, Label: "Reset Snapper", Destructive: true,
			Warning: "This deletes the root snapper configuration and its snapshots.",
			Behavior: Command(
				"snapper -c root delete-config",
				"snapper -c root create-config /",
			),
		},
		Entry{
			ID: IDKernelManager, Label: "Kernel Manager", Interactive: true,
			Behavior: Handoff{Command: "cachyos-kernel-manager || cachyos-settings || echo 'No kernel manager'"},
		},
		Entry{ID: IDVirtualization, Label: "Install Virtualization Stack", Behavior: Command(
			virtualizationInstall,
			"systemctl enable --now libvirtd",
			"usermod -aG libvirt $(logname)",
		)},
		Entry{
			ID: IDReposAndKeyrings, Label: "Repos & Keyrings", Interactive: true,
			Behavior: reconcile(p.PacmanConf),
		},
		wine(IDWineX86, "Wine x86", "wine lib32-wine winetricks zenity"),
		wine(IDWineX64, "Wine x64", "wine winetricks zenity"),
		wine(IDWineWork, "Wine WORK", "wine-cachyos lib32-wine-cachyos winetricks zenity"),
		wine(IDWineBoth, "Wine both", "wine lib32-wine winetricks zenity"),
		wine(IDWineTest, "Wine test", "wine lib32-wine winetricks zenity"),
	)
}

func snapshot(label string) Shell {
	return Command("snapper create -d 'auri " + label + "'")
}

func wine(id, label, packages string) Entry {
	return Entry{
		ID:       id,
		Label:    label,
		Hint:     MultilibHint,
		Behavior: Command("pacman -S --noconfirm --needed " + packages),
	}
}

func reconcile(pacmanConf string) Behavior {
	return BehaviorFunc(func(ctx context.Context, env Env) (int, error) {
		if env.Operator == nil {
			return -1, ErrNeedsOperator
		}
		r := &repos.Reconciler{PacmanConf: pacmanConf, Exec: env.Exec}
		_, code, err := r.Run(ctx, env.Operator, env.Output)
		return code, err
	})
}
