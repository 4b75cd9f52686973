// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/stretchr/testify/mock"

	plugins "github.com/holomush/hookhost/internal/plugin"
	pluginpkg "github.com/holomush/hookhost/pkg/plugin"
)

// mockHost is a testify mock of plugins.Host.
type mockHost struct {
	mock.Mock
}

func (h *mockHost) Load(ctx context.Context, m *plugins.Manifest, dir string) (pluginpkg.Plugin, error) {
	args := h.Called(ctx, m, dir)
	p, _ := args.Get(0).(pluginpkg.Plugin)
	return p, args.Error(1)
}

func (h *mockHost) Unload(ctx context.Context, name string) error {
	return h.Called(ctx, name).Error(0)
}

func (h *mockHost) Plugins() []string {
	names, _ := h.Called().Get(0).([]string)
	return names
}

func (h *mockHost) Close(ctx context.Context) error {
	return h.Called(ctx).Error(0)
}

type namedPlugin string

func (n namedPlugin) Name() string { return string(n) }

func writePlugin(root, dir, manifest string) string {
	pluginDir := filepath.Join(root, dir)
	Expect(os.MkdirAll(pluginDir, 0o750)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(pluginDir, plugins.ManifestFile), []byte(manifest), 0o600)).To(Succeed())
	return pluginDir
}

func luaPlugin(name string) string {
	return "name: " + name + "\nversion: 1.0.0\ntype: lua\nlua-plugin:\n  entry: main.lua\n"
}

var _ = Describe("Manager", func() {
	var (
		ctx  context.Context
		root string
		lua  *mockHost
		bin  *mockHost
	)

	BeforeEach(func() {
		ctx = context.Background()
		root = GinkgoT().TempDir()
		lua = &mockHost{}
		bin = &mockHost{}
	})

	Describe("Discover", func() {
		It("returns nothing when the plugins directory is missing", func() {
			mgr := plugins.NewManager(filepath.Join(root, "missing"))
			found, err := mgr.Discover(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		})

		It("finds valid manifests in directory order", func() {
			helloDir := writePlugin(root, "b-hello", luaPlugin("hello"))
			writePlugin(root, "a-multiply", `
name: multiply
version: 0.1.0
type: binary
binary-plugin:
  executable: multiply
`)

			found, err := plugins.NewManager(root).Discover(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(2))
			Expect(found[0].Manifest.Name).To(Equal("multiply"))
			Expect(found[1].Manifest.Name).To(Equal("hello"))
			Expect(found[1].Dir).To(Equal(helloDir))
		})

		It("skips directories without a manifest, invalid manifests and loose files", func() {
			Expect(os.MkdirAll(filepath.Join(root, "empty"), 0o750)).To(Succeed())
			writePlugin(root, "broken", "name: Broken\nversion: x\n")
			Expect(os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0o600)).To(Succeed())
			writePlugin(root, "good", luaPlugin("good"))

			found, err := plugins.NewManager(root).Discover(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].Manifest.Name).To(Equal("good"))
		})

		It("keeps only the first plugin with a given name", func() {
			writePlugin(root, "a", luaPlugin("same"))
			writePlugin(root, "b", luaPlugin("same"))

			found, err := plugins.NewManager(root).Discover(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].Dir).To(Equal(filepath.Join(root, "a")))
		})
	})

	Describe("LoadAll", func() {
		It("loads each plugin through the host for its type", func() {
			helloDir := writePlugin(root, "hello", luaPlugin("hello"))
			multDir := writePlugin(root, "multiply", `
name: multiply
version: 0.1.0
type: binary
binary-plugin:
  executable: multiply
`)
			lua.On("Load", mock.Anything, mock.MatchedBy(func(m *plugins.Manifest) bool { return m.Name == "hello" }), helloDir).
				Return(namedPlugin("hello"), nil)
			bin.On("Load", mock.Anything, mock.MatchedBy(func(m *plugins.Manifest) bool { return m.Name == "multiply" }), multDir).
				Return(namedPlugin("multiply"), nil)

			mgr := plugins.NewManager(root, plugins.WithLuaHost(lua), plugins.WithBinaryHost(bin))
			loaded, err := mgr.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(2))
			Expect(loaded[0].Plugin.Name()).To(Equal("hello"))
			Expect(loaded[1].Plugin.Name()).To(Equal("multiply"))
			Expect(mgr.ListPlugins()).To(Equal([]string{"hello", "multiply"}))

			lp, ok := mgr.Get("multiply")
			Expect(ok).To(BeTrue())
			Expect(lp.Dir).To(Equal(multDir))

			lua.AssertExpectations(GinkgoT())
			bin.AssertExpectations(GinkgoT())
		})

		It("skips plugins that fail to load and keeps going", func() {
			writePlugin(root, "bad", luaPlugin("bad"))
			writePlugin(root, "good", luaPlugin("good"))
			lua.On("Load", mock.Anything, mock.MatchedBy(func(m *plugins.Manifest) bool { return m.Name == "bad" }), mock.Anything).
				Return(nil, errors.New("syntax error"))
			lua.On("Load", mock.Anything, mock.MatchedBy(func(m *plugins.Manifest) bool { return m.Name == "good" }), mock.Anything).
				Return(namedPlugin("good"), nil)

			mgr := plugins.NewManager(root, plugins.WithLuaHost(lua))
			loaded, err := mgr.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(1))
			Expect(mgr.ListPlugins()).To(Equal([]string{"good"}))
		})

		It("skips disabled plugins without touching the host", func() {
			writePlugin(root, "hello", luaPlugin("hello"))

			mgr := plugins.NewManager(root, plugins.WithLuaHost(lua), plugins.WithDisabled("hello"))
			loaded, err := mgr.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeEmpty())
			lua.AssertNotCalled(GinkgoT(), "Load", mock.Anything, mock.Anything, mock.Anything)
		})

		It("skips plugins whose host-version excludes this host", func() {
			writePlugin(root, "future", luaPlugin("future")+"host-version: \">= 2.0.0\"\n")
			writePlugin(root, "current", luaPlugin("current")+"host-version: \"^0.1\"\n")
			lua.On("Load", mock.Anything, mock.MatchedBy(func(m *plugins.Manifest) bool { return m.Name == "current" }), mock.Anything).
				Return(namedPlugin("current"), nil)

			mgr := plugins.NewManager(root, plugins.WithLuaHost(lua), plugins.WithHostVersion("0.1.3"))
			loaded, err := mgr.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(1))
			Expect(loaded[0].Manifest.Name).To(Equal("current"))
		})

		It("skips plugin types without a host", func() {
			writePlugin(root, "hello", luaPlugin("hello"))

			loaded, err := plugins.NewManager(root).LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeEmpty())
		})
	})

	Describe("Close", func() {
		It("closes every host and reports failures", func() {
			lua.On("Close", mock.Anything).Return(nil)
			bin.On("Close", mock.Anything).Return(errors.New("process stuck"))

			mgr := plugins.NewManager(root, plugins.WithLuaHost(lua), plugins.WithBinaryHost(bin))
			err := mgr.Close(ctx)
			Expect(err).To(MatchError(ContainSubstring("process stuck")))
			Expect(mgr.ListPlugins()).To(BeEmpty())
			lua.AssertExpectations(GinkgoT())
			bin.AssertExpectations(GinkgoT())
		})
	})
})
