package main_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-backoffice/cmd"
)

func TestTravelBackoffice(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "TravelBackoffice Suite")
}

var _ = Describe("command tree", func() {
	It("registers every top-level command", func() {
		names := []string{}
		for _, c := range cmd.RootCommand().Commands() {
			names = append(names, c.Name())
		}

		Expect(names).To(ContainElements("server", "migrate", "seed", "session", "event"))
	})

	It("exposes the session subcommands", func() {
		session, _, err := cmd.RootCommand().Find([]string{"session"})
		Expect(err).NotTo(HaveOccurred())

		names := []string{}
		for _, c := range session.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ConsistOf("login", "logout", "whoami", "can"))
	})
})
