package store_test

import (
	"time"

	. "github.com/sri-ravi13/Orphan-Management-System/common/store"
	"github.com/sri-ravi13/Orphan-Management-System/common/store/storetest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {

	var (
		s     *Store
		child Child
		staff User
	)

	BeforeEach(func() {
		s = storetest.NewStore()
		child = storetest.MustAddChild(s, "Alice", "Smith")
		staff = storetest.MustAddUser(s, "staff1", "Staff")
	})

	AfterEach(func() {
		s.Db.Close()
	})

	Describe("DeleteChildCascade", func() {

		var (
			result       CascadeResult
			returnedErr  error
			otherChild   Child
			otherHealth  HealthRecord
			childAdopted Adoption
		)

		BeforeEach(func() {
			otherChild = storetest.MustAddChild(s, "Bob", "Jones")

			_, err := s.AddHealthRecord(nil, HealthRecord{ChildId: child.ChildId, MedicalHistory: NullString("none")})
			Expect(err).To(BeNil())
			otherHealth, err = s.AddHealthRecord(nil, HealthRecord{ChildId: otherChild.ChildId, MedicalHistory: NullString("asthma")})
			Expect(err).To(BeNil())
			_, err = s.AddEducationalRecord(nil, EducationalRecord{ChildId: child.ChildId, SchoolName: NullString("Green Hill")})
			Expect(err).To(BeNil())
			_, err = s.AddDocument(nil, Document{ChildId: child.ChildId, Filename: NullString("birth.pdf"), Path: NullString("/uploads/doc-1.pdf"), Mimetype: NullString("application/pdf")})
			Expect(err).To(BeNil())
			_, err = s.AddStaffAssignment(nil, StaffAssignment{StaffId: staff.UserId, ChildId: child.ChildId})
			Expect(err).To(BeNil())
			childAdopted, err = s.AddAdoption(nil, Adoption{ChildId: child.ChildId, AdopterName: NullString("Jane Doe")})
			Expect(err).To(BeNil())
		})

		JustBeforeEach(func() {
			result, returnedErr = s.DeleteChildCascade(child.ChildId.String)
		})

		It("should not return an error", func() {
			Expect(returnedErr).To(BeNil())
		})

		It("should report the files to clean up", func() {
			Expect(result.PhotoUrl).To(Equal("/img/default_avatar.png"))
			Expect(result.DocumentPaths).To(ConsistOf("/uploads/doc-1.pdf"))
		})

		It("should report the removed rows", func() {
			Expect(result.HealthRecords).To(BeEquivalentTo(1))
			Expect(result.EducationalRecords).To(BeEquivalentTo(1))
			Expect(result.Documents).To(BeEquivalentTo(1))
			Expect(result.StaffAssignments).To(BeEquivalentTo(1))
			Expect(result.Adoptions).To(BeEquivalentTo(1))
		})

		It("should remove the child and its dependents", func() {
			_, err := s.GetChild(nil, child.ChildId.String)
			Expect(err).To(Equal(ErrChildNotFound))

			health, _ := s.ListHealthRecords(nil, child.ChildId.String)
			Expect(health).To(BeEmpty())
			education, _ := s.ListEducationalRecords(nil, child.ChildId.String)
			Expect(education).To(BeEmpty())
			documents, _ := s.ListDocumentsOfChild(nil, child.ChildId.String)
			Expect(documents).To(BeEmpty())
			assignments, _ := s.ListStaffAssignments(nil, staff.UserId.String)
			Expect(assignments).To(BeEmpty())
			_, err = s.GetAdoption(nil, childAdopted.AdoptionId.String)
			Expect(err).To(Equal(ErrAdoptionNotFound))
		})

		It("should leave other children untouched", func() {
			record, err := s.GetHealthRecord(nil, otherHealth.HealthRecordId.String)
			Expect(err).To(BeNil())
			Expect(record.ChildId.String).To(Equal(otherChild.ChildId.String))
		})

		Context("When the child does not exist", func() {
			BeforeEach(func() {
				child.ChildId = NullString("unknown")
			})

			It("should return ErrChildNotFound", func() {
				Expect(returnedErr).To(Equal(ErrChildNotFound))
			})
		})
	})

	Describe("Uniqueness", func() {

		It("should refuse a second assignment of the same staff to the same child", func() {
			_, err := s.AddStaffAssignment(nil, StaffAssignment{StaffId: staff.UserId, ChildId: child.ChildId})
			Expect(err).To(BeNil())
			_, err = s.AddStaffAssignment(nil, StaffAssignment{StaffId: staff.UserId, ChildId: child.ChildId})
			Expect(err).To(Equal(ErrDuplicateStaffAssignment))
		})

		It("should refuse a second adoption of the same child", func() {
			_, err := s.AddAdoption(nil, Adoption{ChildId: child.ChildId, AdopterName: NullString("Jane")})
			Expect(err).To(BeNil())
			_, err = s.AddAdoption(nil, Adoption{ChildId: child.ChildId, AdopterName: NullString("John")})
			Expect(err).To(Equal(ErrAlreadyAdopted))
		})

		It("should refuse a user whose email differs only by case", func() {
			_, err := s.AddUser(nil, User{Username: NullString("other"), Email: NullString("STAFF1@example.com"), Password: NullString("x"), Role: NullString("Staff")})
			Expect(err).To(Equal(ErrDuplicateUser))
		})

		It("should accept several donations without transaction id", func() {
			_, err := s.AddDonation(nil, Donation{DonorName: NullString("a"), Amount: 10, Frequency: NullString("one-time")})
			Expect(err).To(BeNil())
			_, err = s.AddDonation(nil, Donation{DonorName: NullString("b"), Amount: 10, Frequency: NullString("one-time")})
			Expect(err).To(BeNil())
		})

		It("should refuse a duplicated transaction id", func() {
			_, err := s.AddDonation(nil, Donation{DonorName: NullString("a"), Amount: 10, TransactionId: NullString("sim_txn_1")})
			Expect(err).To(BeNil())
			_, err = s.AddDonation(nil, Donation{DonorName: NullString("b"), Amount: 10, TransactionId: NullString("sim_txn_1")})
			Expect(err).To(Equal(ErrDuplicateTransaction))
		})
	})

	Describe("CompleteTask", func() {

		var task Task

		BeforeEach(func() {
			var err error
			task, err = s.AddTask(nil, Task{StaffId: staff.UserId, TaskDescription: NullString("Feed the fish")})
			Expect(err).To(BeNil())
		})

		It("should complete a pending task exactly once", func() {
			done, err := s.CompleteTask(nil, task.TaskId.String, time.Now())
			Expect(err).To(BeNil())
			Expect(done).To(BeTrue())

			done, err = s.CompleteTask(nil, task.TaskId.String, time.Now())
			Expect(err).To(BeNil())
			Expect(done).To(BeFalse())

			stored, _ := s.GetTask(nil, task.TaskId.String)
			Expect(stored.Status.String).To(Equal(TASK_COMPLETED))
			Expect(stored.DateCompleted).NotTo(BeNil())
		})
	})

	Describe("Background jobs", func() {

		var job BackgroundJob

		BeforeEach(func() {
			var err error
			job, err = s.AddJob(nil, BackgroundJob{Type: NullString("file_cleanup"), Payload: NullString(`{}`)})
			Expect(err).To(BeNil())
		})

		It("should be claimed only once", func() {
			claimed, err := s.MarkJobRunning(nil, job.JobId.String, time.Time{})
			Expect(err).To(BeNil())
			Expect(claimed).To(BeTrue())

			claimed, err = s.MarkJobRunning(nil, job.JobId.String, time.Time{})
			Expect(err).To(BeNil())
			Expect(claimed).To(BeFalse())
		})

		It("should be retryable after a failure until max attempts", func() {
			s.MarkJobRunning(nil, job.JobId.String, time.Time{})
			Expect(s.MarkJobFailed(nil, job.JobId.String, ErrChildNotFound)).To(Succeed())

			jobs, err := s.ListRetryableJobs(nil, 2, time.Time{})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].LastError.String).To(Equal("child not found"))

			jobs, err = s.ListRetryableJobs(nil, 1, time.Time{})
			Expect(err).To(BeNil())
			Expect(jobs).To(BeEmpty())
		})

		Context("When the job has not been touched for an hour", func() {
			var staleBefore time.Time

			BeforeEach(func() {
				staleBefore = time.Now().UTC().Add(-15 * time.Minute)
				Expect(s.Db.Model(&BackgroundJob{}).Where("job_id = ?", job.JobId.String).
					UpdateColumn("updated_at", time.Now().UTC().Add(-time.Hour)).Error).To(Succeed())
			})

			It("should list the pending job", func() {
				jobs, err := s.ListRetryableJobs(nil, 2, staleBefore)
				Expect(err).To(BeNil())
				Expect(jobs).To(HaveLen(1))
			})

			It("should ignore it without a stale threshold", func() {
				jobs, err := s.ListRetryableJobs(nil, 2, time.Time{})
				Expect(err).To(BeNil())
				Expect(jobs).To(BeEmpty())
			})

			It("should reclaim the job once its worker went quiet", func() {
				Expect(s.Db.Model(&BackgroundJob{}).Where("job_id = ?", job.JobId.String).
					UpdateColumn("status", JOB_RUNNING).Error).To(Succeed())

				claimed, err := s.MarkJobRunning(nil, job.JobId.String, time.Time{})
				Expect(err).To(BeNil())
				Expect(claimed).To(BeFalse())

				claimed, err = s.MarkJobRunning(nil, job.JobId.String, staleBefore)
				Expect(err).To(BeNil())
				Expect(claimed).To(BeTrue())

				claimed, err = s.MarkJobRunning(nil, job.JobId.String, staleBefore)
				Expect(err).To(BeNil())
				Expect(claimed).To(BeFalse())
			})
		})

		It("should record success", func() {
			s.MarkJobRunning(nil, job.JobId.String, time.Time{})
			Expect(s.MarkJobSucceeded(nil, job.JobId.String)).To(Succeed())

			stored, err := s.GetJob(nil, job.JobId.String)
			Expect(err).To(BeNil())
			Expect(stored.Status.String).To(Equal(JOB_SUCCEEDED))
			Expect(stored.Attempts).To(Equal(1))
			Expect(stored.CompletedAt).NotTo(BeNil())
		})
	})

	Describe("SeedDatabase", func() {

		It("should only seed empty tables", func() {
			users, children, err := s.SeedDatabase(nil, "/img/default_avatar.png")
			Expect(err).To(BeNil())
			Expect(users).To(Equal(0))
			Expect(children).To(Equal(0))
		})

		It("should seed demo data in an empty database", func() {
			empty := storetest.NewStore()
			defer empty.Db.Close()

			users, children, err := empty.SeedDatabase(nil, "/img/default_avatar.png")
			Expect(err).To(BeNil())
			Expect(users).To(Equal(5))
			Expect(children).To(Equal(3))

			admin, err := empty.GetUserByEmail(nil, "ADMIN@example.com")
			Expect(err).To(BeNil())
			Expect(admin.Role.String).To(Equal("Admin"))
			Expect(admin.Password.String).NotTo(Equal("password123"))
		})
	})

	Describe("AgeAt", func() {
		It("should count full years only", func() {
			dob := time.Date(2018, 5, 15, 0, 0, 0, 0, time.UTC)
			Expect(AgeAt(dob, time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC))).To(BeEquivalentTo(5))
			Expect(AgeAt(dob, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))).To(BeEquivalentTo(6))
		})
	})
})
