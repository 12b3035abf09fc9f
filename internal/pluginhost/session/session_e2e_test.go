// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package session_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/forgekit/buildplugin/internal/pluginhost/ids"
	"github.com/forgekit/buildplugin/internal/pluginhost/pherr"
	"github.com/forgekit/buildplugin/internal/pluginhost/session"
	"github.com/forgekit/buildplugin/internal/pluginhost/wire"
)

// symbolGraphDelegate answers a plugin-initiated SymbolGraphRequest and
// signals once its completion callback has run.
type symbolGraphDelegate struct {
	session.NoopDelegate
	invoked chan struct{}
}

func newSymbolGraphDelegate() *symbolGraphDelegate {
	return &symbolGraphDelegate{invoked: make(chan struct{})}
}

func (d *symbolGraphDelegate) PluginRequestedSymbolGraph(_ string, _ map[string]string, completion session.SymbolGraphCompletion) {
	completion("/sg", nil)
	close(d.invoked)
}

var _ = Describe("Invocation Session", func() {
	var fc *fakeChild

	BeforeEach(func() {
		fc = newFakeChild()
	})

	It("S1: captures a build command with sorted tool paths prefixed to its inputs", func() {
		go func() {
			fc.sendFromPlugin(wire.DefineBuildCommand{
				Config: wire.CommandConfig{
					Version:     2,
					DisplayName: "gen",
					Executable:  "/u/gen",
					Arguments:   []string{"--in", "/x"},
					Environment: map[string]string{},
				},
				Inputs:  []string{"/x"},
				Outputs: []string{"/y"},
			})
			fc.simulateExit(0)
		}()

		result, err := session.Run(context.Background(), session.StartParams{
			Child:     fc,
			Initial:   wire.CreateBuildToolCommands{Package: ids.PackageID(1), Target: ids.TargetID(1)},
			ToolPaths: []string{"/tool/b", "/tool/a"},
		}, session.NoopDelegate{})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.ExitedCleanly).To(BeTrue())
		Expect(result.Diagnostics).To(BeEmpty())
		Expect(result.BuildCommands).To(HaveLen(1))
		Expect(result.BuildCommands[0].InputFiles).To(Equal([]string{"/tool/a", "/tool/b", "/x"}))
		Expect(result.BuildCommands[0].Outputs).To(Equal([]string{"/y"}))
	})

	It("S2: fails with an incompatible-version error on a bad build command config", func() {
		go func() {
			fc.sendFromPlugin(wire.DefineBuildCommand{
				Config: wire.CommandConfig{Version: 1, DisplayName: "gen", Executable: "/u/gen"},
			})
			// The session kills the child on abort; no natural exit needed.
		}()

		result, err := session.Run(context.Background(), session.StartParams{
			Child:   fc,
			Initial: wire.CreateBuildToolCommands{Package: ids.PackageID(1), Target: ids.TargetID(1)},
		}, session.NoopDelegate{})

		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, pherr.ErrPluginUsesIncompatibleVersion)).To(BeTrue())
		Expect(result.BuildCommands).To(BeEmpty())
	})

	It("fails with a decoding error on a malformed inbound frame", func() {
		go func() {
			fc.sendRawFromPlugin([]byte("not json"))
			// The session kills the child on abort; no natural exit needed.
		}()

		result, err := session.Run(context.Background(), session.StartParams{
			Child:   fc,
			Initial: wire.CreateBuildToolCommands{Package: ids.PackageID(1), Target: ids.TargetID(1)},
		}, session.NoopDelegate{})

		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, pherr.ErrDecodingPluginOutputFailed)).To(BeTrue())
		Expect(result.BuildCommands).To(BeEmpty())
	})

	It("S3: rejects a prebuild command naming a built tool path", func() {
		go func() {
			fc.sendFromPlugin(wire.DefinePrebuildCommand{
				Config: wire.CommandConfig{
					Version:     2,
					DisplayName: "pre",
					Executable:  "/built/tool",
				},
				OutputFilesDir: "/out",
			})
			fc.simulateExit(0)
		}()

		result, err := session.Run(context.Background(), session.StartParams{
			Child:          fc,
			Initial:        wire.PerformCommand{Package: ids.PackageID(1)},
			BuiltToolPaths: []string{"/built/tool"},
		}, session.NoopDelegate{})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.ExitedCleanly).To(BeFalse())
		Expect(result.PrebuildCommands).To(BeEmpty())
		Expect(result.Diagnostics).To(HaveLen(1))
		Expect(result.Diagnostics[0].Severity).To(Equal(session.SeverityError))
		Expect(result.Diagnostics[0].Message).To(ContainSubstring("tool"))
	})

	It("S4: answers a plugin-initiated symbol graph request before the plugin exits", func() {
		delegate := newSymbolGraphDelegate()

		go func() {
			fc.sendFromPlugin(wire.SymbolGraphRequest{Target: "t"})
			Eventually(delegate.invoked).Should(BeClosed())
			Eventually(func() int { return len(fc.capturedFrames()) }).Should(BeNumerically(">=", 2))
			fc.simulateExit(0)
		}()

		result, err := session.Run(context.Background(), session.StartParams{
			Child:   fc,
			Initial: wire.PerformCommand{Package: ids.PackageID(1)},
		}, delegate)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.ExitedCleanly).To(BeTrue())

		frames := fc.capturedFrames()
		Expect(frames).To(HaveLen(2))
		reply, decodeErr := wire.DecodeHostToPlugin(frames[1])
		Expect(decodeErr).NotTo(HaveOccurred())
		resp, ok := reply.(wire.SymbolGraphResponse)
		Expect(ok).To(BeTrue())
		Expect(resp.DirectoryURL).To(Equal("file:///sg"))
	})

	It("S5: synthesizes an error diagnostic for a dirty exit with no emitted diagnostics", func() {
		go func() {
			fc.simulateExit(2)
		}()

		result, err := session.Run(context.Background(), session.StartParams{
			Child:   fc,
			Initial: wire.PerformCommand{Package: ids.PackageID(1)},
		}, session.NoopDelegate{})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.ExitedCleanly).To(BeFalse())
		Expect(result.Diagnostics).To(HaveLen(1))
		Expect(result.Diagnostics[0].Message).To(ContainSubstring("exit code 2"))
	})

	It("does not synthesize a diagnostic on a clean zero exit", func() {
		go func() {
			fc.simulateExit(0)
		}()

		result, err := session.Run(context.Background(), session.StartParams{
			Child:   fc,
			Initial: wire.PerformCommand{Package: ids.PackageID(1)},
		}, session.NoopDelegate{})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.ExitedCleanly).To(BeTrue())
		Expect(result.Diagnostics).To(BeEmpty())
	})

	It("kills the child and fails with a wrapped context.Canceled when the caller cancels", func() {
		ctx, cancel := context.WithCancel(context.Background())

		// fc never exits or emits anything on its own; only cancelling
		// ctx can unblock session.Run.
		go cancel()

		_, err := session.Run(ctx, session.StartParams{
			Child:   fc,
			Initial: wire.PerformCommand{Package: ids.PackageID(1)},
		}, session.NoopDelegate{})

		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, pherr.ErrRunningPluginFailed)).To(BeTrue())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})
