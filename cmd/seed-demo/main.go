package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/edusfera/journal-backend/internal/config"
	"github.com/edusfera/journal-backend/internal/database"
	"github.com/edusfera/journal-backend/internal/logger"
	"github.com/edusfera/journal-backend/internal/model"
	"github.com/edusfera/journal-backend/internal/repository"
)

// Seeds one demo group with a teacher, subjects, students, and two weeks of
// grades so the journal and the student views have something to show.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	gradeRepo := repository.NewGradeRepository(pool, rdb, log)

	fmt.Println("=== Seeding Demo Data ===")

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash demo password")
	}
	passwordHash := string(hash)

	// Group
	group := &model.Group{ID: uuid.New().String(), Name: "10-A"}
	if err := groupRepo.Create(ctx, group); err != nil {
		log.Fatal().Err(err).Msg("Failed to create group")
	}
	fmt.Printf("Created group %s (%s)\n", group.Name, group.ID)

	// Teacher
	teacher := &model.User{
		ID:           uuid.New().String(),
		Name:         "Elena Morozova",
		Email:        "teacher@demo.local",
		PasswordHash: passwordHash,
		Role:         model.RoleTeacher,
	}
	if err := userRepo.Create(ctx, teacher); err != nil {
		log.Fatal().Err(err).Msg("Failed to create teacher")
	}
	fmt.Printf("Created teacher %s <%s>\n", teacher.Name, teacher.Email)

	// Subjects, assigned to the group in display order
	subjectNames := []string{"Mathematics", "Physics", "Literature", "History"}
	var subjects []*model.Subject
	for i, name := range subjectNames {
		subj := &model.Subject{ID: uuid.New().String(), Name: name, TeacherID: teacher.ID}
		if err := subjectRepo.Create(ctx, subj); err != nil {
			log.Fatal().Err(err).Str("subject", name).Msg("Failed to create subject")
		}
		if err := subjectRepo.AssignToGroup(ctx, subj.ID, group.ID, i); err != nil {
			log.Fatal().Err(err).Str("subject", name).Msg("Failed to assign subject")
		}
		subjects = append(subjects, subj)
	}
	fmt.Printf("Created %d subjects\n", len(subjects))

	// Students
	studentNames := []string{
		"Anna Petrova", "Boris Ivanov", "Daria Sokolova", "Egor Smirnov",
		"Ksenia Volkova", "Mikhail Orlov", "Olga Fedorova", "Pavel Kuznetsov",
	}
	var students []*model.User
	for i, name := range studentNames {
		student := &model.User{
			ID:           uuid.New().String(),
			Name:         name,
			Email:        fmt.Sprintf("student%d@demo.local", i+1),
			PasswordHash: passwordHash,
			Role:         model.RoleStudent,
			GroupID:      group.ID,
		}
		if err := userRepo.Create(ctx, student); err != nil {
			log.Fatal().Err(err).Str("student", name).Msg("Failed to create student")
		}
		students = append(students, student)
	}
	fmt.Printf("Created %d students\n", len(students))

	// Two weeks of grades, skipping weekends. Every fifth mark is an
	// attendance marker so averages have something to skip.
	values := []model.GradeValue{
		model.GradeExcellent, model.GradeGood, model.GradeFair,
		model.GradeGood, model.GradeAbsent,
	}
	gradeCount := 0
	day := time.Now().UTC().AddDate(0, 0, -14)
	for d := 0; d < 14; d++ {
		day = day.AddDate(0, 0, 1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for si, subj := range subjects {
			for pi, student := range students {
				// Thin the grid out so not every cell is filled.
				if (d+si+pi)%3 != 0 {
					continue
				}
				v := values[(d+si+pi)%len(values)]
				if err := gradeRepo.WriteGrade(ctx, student.ID, subj.ID, day, v); err != nil {
					log.Fatal().Err(err).Msg("Failed to write grade")
				}
				gradeCount++
			}
		}
	}
	fmt.Printf("Wrote %d grades\n", gradeCount)

	fmt.Println("\nSeed completed!")
	fmt.Println("Teacher login:  teacher@demo.local / demo1234")
	fmt.Println("Student login:  student1@demo.local / demo1234")
}
