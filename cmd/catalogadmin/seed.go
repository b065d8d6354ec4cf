package main

import (
	"context"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/rs/zerolog"
)

// seedDemoCatalog fills an empty in-memory store with a small catalog so the
// admin can be exercised without a backend.
func seedDemoCatalog(ctx context.Context, svc *catalog.Service, logger zerolog.Logger) {
	ctx = catalog.WithActor(ctx, "seed")
	var firstErr error
	must := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	uni, err := svc.CreateUniversity(ctx, "Université Hassan II de Casablanca", "Casablanca")
	must(err)
	_, err = svc.CreateUniversity(ctx, "Université Mohammed V de Rabat", "Rabat")
	must(err)
	fac, err := svc.CreateFaculty(ctx, uni.ID, "Faculté des Sciences")
	must(err)
	field, err := svc.CreateField(ctx, fac.ID, "Informatique", catalog.DegreeLicence)
	must(err)
	sem, err := svc.CreateSemester(ctx, field.ID, "S1")
	must(err)
	sub, err := svc.CreateSubject(ctx, sem.ID, "Algorithmes et Structures de Données")
	must(err)

	level, err := svc.CreateSchoolLevel(ctx, "Lycée")
	must(err)
	year, err := svc.CreateSchoolYear(ctx, level.ID, "Tronc Commun")
	must(err)
	schoolSub, err := svc.CreateSchoolSubject(ctx, year.ID, "Mathématiques")
	must(err)

	intro, err := svc.CreatePost(ctx, catalog.PostInput{
		Title:         "Introduction aux algorithmes",
		ContentType:   catalog.ContentCourse,
		EducationType: catalog.EducationUniversity,
		SubjectID:     sub.ID,
		Published:     true,
	}, nil)
	must(err)
	_, err = svc.CreatePost(ctx, catalog.PostInput{
		Title:           "Résumé: les fonctions",
		ContentType:     catalog.ContentSummary,
		EducationType:   catalog.EducationSchool,
		SchoolSubjectID: schoolSub.ID,
		Published:       true,
	}, nil)
	must(err)

	pack, err := svc.CreateContentPack(ctx, catalog.ContentPackInput{
		Title:         "Bien démarrer en informatique",
		EducationType: catalog.EducationUniversity,
	})
	must(err)
	_, err = svc.AddContentPackItem(ctx, pack.ID, intro.ID, 0)
	must(err)
	_, err = svc.SubmitResourceRequest(ctx, "Examens corrigés S1", "Sessions 2023 et 2024", catalog.EducationUniversity)
	must(err)

	if firstErr != nil {
		logger.Warn().Err(firstErr).Msg("Demo catalog seeded with errors.")
		return
	}
	logger.Info().Msg("Demo catalog seeded.")
}
