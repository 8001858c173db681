package authentication_test

import (
	. "github.com/sri-ravi13/Orphan-Management-System/api/authentication"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Password", func() {

	It("should accept the hashed password", func() {
		hash, err := HashPassword("password123")
		Expect(err).To(BeNil())
		ok, rehash := CheckPassword(hash, "password123")
		Expect(ok).To(BeTrue())
		Expect(rehash).To(BeFalse())
	})

	It("should reject another password", func() {
		hash, _ := HashPassword("password123")
		ok, _ := CheckPassword(hash, "password124")
		Expect(ok).To(BeFalse())
	})

	It("should accept a legacy plaintext password and ask for a rehash", func() {
		ok, rehash := CheckPassword("password123", "password123")
		Expect(ok).To(BeTrue())
		Expect(rehash).To(BeTrue())
	})

	It("should never accept an empty stored password", func() {
		ok, _ := CheckPassword("", "")
		Expect(ok).To(BeFalse())
	})

	It("should compare unknown logins against a real hash", func() {
		cost, err := bcrypt.Cost([]byte(DummyHash))
		Expect(err).To(BeNil())
		Expect(cost).To(Equal(bcrypt.DefaultCost))

		ok, rehash := CheckPassword(DummyHash, "password123")
		Expect(ok).To(BeFalse())
		Expect(rehash).To(BeFalse())
	})
})
