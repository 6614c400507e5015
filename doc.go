// Package torquefit predicts per-joint torques of a fixed-size robotic
// manipulator from joint kinematic state (angle, velocity, acceleration).
//
// The pipeline loads four joint-major CSV tables, assembles a sample-major
// feature/target pair with deterministic column naming, splits it into
// training and validation folds, standardizes features and targets, and
// trains one gradient-boosted regression model per joint with early stopping
// against the validation fold. A fitted estimator predicts physical-unit
// torques, exposes gain-based feature importance, and persists itself as a
// self-describing directory bundle.
//
// # Quick Start
//
//	loader := dataset.NewLoader(6)
//	ds, err := loader.Load("angles.csv", "velocities.csv", "accelerations.csv", "torques.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	XTrain, XVal, yTrain, yVal, err := dataset.TrainValSplit(ds.X, ds.Y, 0.2, 42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	est := torque.NewEstimator(6)
//	rmse, err := est.Fit(XTrain, yTrain, XVal, yVal)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("per-joint validation RMSE:", rmse)
//
//	torques, err := est.Predict(ds.X)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = torques
//
//	if err := est.Save("model_bundle"); err != nil {
//	    log.Fatal(err)
//	}
package torquefit
