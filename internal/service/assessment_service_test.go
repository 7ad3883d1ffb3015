package service

import (
	"testing"

	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/notifier"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newAssessmentFixture(t *testing.T) (*gorm.DB, AssessmentService) {
	db := newTestDB(t)
	notifications := notifier.NewService(repository.NewNotificationRepository(db), notifier.NewHub())
	svc := NewAssessmentService(
		repository.NewAssessmentRepository(db),
		repository.NewAssessmentResultRepository(db),
		repository.NewStudentQuizAnswerRepository(db),
		repository.NewReadingRepository(db),
		repository.NewUserRepository(db),
		repository.NewClassRepository(db),
		notifications,
	)
	return db, svc
}

func seedUser(t *testing.T, db *gorm.DB, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{Email: string(role) + "-" + t.Name() + "@test.local", PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestStartAssessmentCreatesPending(t *testing.T) {
	db, svc := newAssessmentFixture(t)
	student := seedStudent(t, db)
	reading := seedReading(t, db)

	resp, err := svc.StartAssessment(student, dto.StartAssessmentRequest{ReadingID: reading.ID})
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusPendingAudio), resp.Status)
	assert.Equal(t, student.ID, resp.StudentID)
	assert.Equal(t, reading.Title, resp.ReadingTitle)

	_, err = svc.StartAssessment(student, dto.StartAssessmentRequest{ReadingID: "00000000-0000-0000-0000-000000000000"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignReadingFansOutToClass(t *testing.T) {
	db, svc := newAssessmentFixture(t)
	teacher := seedUser(t, db, model.RoleTeacher)
	reading := seedReading(t, db)

	classRepo := repository.NewClassRepository(db)
	class := &model.Class{ClassName: "3B", CreatedByTeacherID: teacher.ID}
	require.NoError(t, classRepo.Create(class))
	s1 := seedStudent(t, db)
	s2 := seedStudent(t, db)
	require.NoError(t, classRepo.AddStudent(class.ID, s1))
	require.NoError(t, classRepo.AddStudent(class.ID, s2))

	resp, err := svc.AssignReading(teacher, dto.AssignReadingRequest{ReadingID: reading.ID, ClassID: &class.ID})
	require.NoError(t, err)
	assert.Len(t, resp.CreatedAssessments, 2)
	assert.Empty(t, resp.SkippedStudents)
	for _, created := range resp.CreatedAssessments {
		assert.Equal(t, string(model.StatusPendingAudio), created.Status)
		require.NotNil(t, created.AssignedByTeacherID)
		assert.Equal(t, teacher.ID, *created.AssignedByTeacherID)
	}

	// Every assigned student got a notification row.
	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestAssignReadingSkipsNonStudentsAndDuplicates(t *testing.T) {
	db, svc := newAssessmentFixture(t)
	teacher := seedUser(t, db, model.RoleTeacher)
	otherTeacher := seedUser(t, db, model.RoleAdmin)
	reading := seedReading(t, db)
	student := seedStudent(t, db)

	resp, err := svc.AssignReading(teacher, dto.AssignReadingRequest{
		ReadingID:  reading.ID,
		StudentIDs: []string{student.ID, student.ID, otherTeacher.ID, "00000000-0000-0000-0000-000000000000"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.CreatedAssessments, 1)
	assert.Len(t, resp.SkippedStudents, 2)

	student2 := seedStudent(t, db)
	_, err = svc.AssignReading(student2, dto.AssignReadingRequest{ReadingID: reading.ID, StudentIDs: []string{student.ID}})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestParentAssignsOnlyLinkedChildren(t *testing.T) {
	db, svc := newAssessmentFixture(t)
	parent := seedUser(t, db, model.RoleParent)
	reading := seedReading(t, db)
	linked := seedStudent(t, db)
	unlinked := seedStudent(t, db)

	userRepo := repository.NewUserRepository(db)
	require.NoError(t, userRepo.CreateParentLink(&model.ParentStudentLink{ParentID: parent.ID, StudentID: linked.ID}))

	resp, err := svc.AssignReading(parent, dto.AssignReadingRequest{
		ReadingID:  reading.ID,
		StudentIDs: []string{linked.ID, unlinked.ID},
	})
	require.NoError(t, err)
	require.Len(t, resp.CreatedAssessments, 1)
	assert.Equal(t, linked.ID, resp.CreatedAssessments[0].StudentID)
	assert.Equal(t, []string{unlinked.ID}, resp.SkippedStudents)
}

func TestGetResultEnforcesAccessAndHidesDiagnostics(t *testing.T) {
	db, svc := newAssessmentFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)
	detail := "analyzer exploded"
	require.NoError(t, db.Model(assessment).Updates(map[string]interface{}{
		"status":           model.StatusError,
		"processing_error": detail,
	}).Error)

	stranger := seedStudent(t, db)
	_, err := svc.GetResult(assessment.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	result, err := svc.GetResult(assessment.ID, student)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusError), result.Status)

	// Diagnostics are admin only.
	_, err = svc.GetDiagnostics(assessment.ID, student)
	assert.ErrorIs(t, err, ErrForbidden)

	admin := seedUser(t, db, model.RoleAdmin)
	stored, err := svc.GetDiagnostics(assessment.ID, admin)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, detail, *stored)
}

func TestGetResultUnavailableBeforeSettlement(t *testing.T) {
	db, svc := newAssessmentFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)

	_, err := svc.GetResult(assessment.ID, student)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, db.Model(assessment).Update("status", model.StatusProcessing).Error)
	_, err = svc.GetResult(assessment.ID, student)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, db.Model(assessment).Update("status", model.StatusCompleted).Error)
	result, err := svc.GetResult(assessment.ID, student)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusCompleted), result.Status)
}

func TestStudentProgressAggregates(t *testing.T) {
	db, svc := newAssessmentFixture(t)
	student := seedStudent(t, db)
	reading := seedReading(t, db)

	resultRepo := repository.NewAssessmentResultRepository(db)
	score1, score2 := 0.5, 1.0
	for _, score := range []*float64{&score1, &score2} {
		assessment := &model.Assessment{StudentID: student.ID, ReadingID: reading.ID, Status: model.StatusCompleted}
		require.NoError(t, db.Create(assessment).Error)
		require.NoError(t, resultRepo.Upsert(&model.AssessmentResult{
			AssessmentID:       assessment.ID,
			AnalysisData:       datatypes.JSONMap{"fluency_score": 0.8},
			ComprehensionScore: score,
		}))
	}
	pending := &model.Assessment{StudentID: student.ID, ReadingID: reading.ID, Status: model.StatusPendingAudio}
	require.NoError(t, db.Create(pending).Error)

	progress, err := svc.StudentProgress(student.ID, student)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TotalAssessments)
	assert.Equal(t, 2, progress.CompletedAssessments)
	assert.Equal(t, 1, progress.PendingAssessments)
	require.NotNil(t, progress.AverageComprehension)
	assert.InDelta(t, 0.75, *progress.AverageComprehension, 1e-9)
	require.NotNil(t, progress.AverageFluency)
	assert.InDelta(t, 0.8, *progress.AverageFluency, 1e-9)
}
